// Package helper coordinates licences for managed add-ons: it discovers which
// installed add-ons are licence-managed, keeps their stored licence state in
// line with the remote licensing server and reports the outcome as notices.
package helper

import (
	"context"

	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/plugins"
)

// OptionsStore persists per-product settings.
type OptionsStore interface {
	Get(ctx context.Context, product, key string, dst any) (bool, error)
	Update(ctx context.Context, product, key string, value any) error
	Delete(ctx context.Context, product, key string) error
}

// Inventory enumerates installed add-ons keyed by filename.
type Inventory interface {
	Plugins() (map[string]plugins.Plugin, error)
}

// LicensingAPI is the remote licensing server.
type LicensingAPI interface {
	PluginUpdateCheck(ctx context.Context, args helperapi.Args) (helperapi.Response, error)
	PluginInformation(ctx context.Context, args helperapi.Args) (helperapi.Response, error)
	Activate(ctx context.Context, args helperapi.Args) (helperapi.Response, error)
	Deactivate(ctx context.Context, args helperapi.Args) (helperapi.Response, error)
}

// TransientInvalidator drops the cached update-check transient.
type TransientInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Deps are the collaborators a Helper needs.
type Deps struct {
	Options    OptionsStore
	Inventory  Inventory
	API        LicensingAPI
	Transients TransientInvalidator // optional
}

// Helper is the licence coordinator. It holds no per-request state; notices
// are collected in the *Notices passed to each operation.
type Helper struct {
	options    OptionsStore
	inventory  Inventory
	api        LicensingAPI
	transients TransientInvalidator
}

// New creates a Helper.
func New(deps Deps) *Helper {
	return &Helper{
		options:    deps.Options,
		inventory:  deps.Inventory,
		api:        deps.API,
		transients: deps.Transients,
	}
}
