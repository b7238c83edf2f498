package helper

import (
	"context"
	"time"

	"github.com/jobmanager/helper/internal/helperapi"
	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/metrics"
	"github.com/jobmanager/helper/internal/updates"
)

// ActionPluginInformation is the only plugins-API action answered by the helper.
const ActionPluginInformation = "plugin_information"

// CheckForUpdates asks the licensing server about every active managed
// product with a stored licence key and merges available updates into
// transient, keyed by add-on filename. Products whose check fails are
// skipped. Only strictly newer versions touch the transient.
func (h *Helper) CheckForUpdates(ctx context.Context, n *Notices, transient *updates.Transient) *updates.Transient {
	if transient == nil {
		transient = updates.NewTransient()
	}
	logger := logging.FromContext(ctx)

	products := h.products(ctx, true)
	for _, slug := range sortedSlugs(products) {
		product := products[slug]
		resp := h.pluginVersion(ctx, n, product)
		if resp == nil || resp.NewVersion() == "" {
			continue
		}

		newer, err := updates.IsNewer(resp.NewVersion(), product.Version)
		if err != nil {
			logger.Warn().Err(err).Str("product", slug).Msg("Cannot compare add-on versions")
			continue
		}
		if !newer {
			continue
		}

		logger.Info().
			Str("product", slug).
			Str("installed", product.Version).
			Str("available", resp.NewVersion()).
			Msg("Add-on update available")
		transient.SetUpdate(product.Filename, updates.UpdateDescriptor(resp))
	}
	metrics.UpdatesAvailable.Set(float64(len(transient.Response)))
	return transient
}

// TransientStore loads and saves the update-check transient.
type TransientStore interface {
	Load(ctx context.Context) (*updates.Transient, error)
	Save(ctx context.Context, t *updates.Transient) error
}

// RefreshUpdates rebuilds the update list from scratch, stamps the transient
// with now and the installed versions it looked at, and stores it again.
// Update entries from earlier runs are not carried over.
func (h *Helper) RefreshUpdates(ctx context.Context, n *Notices, store TransientStore, now time.Time) (*updates.Transient, error) {
	transient, err := store.Load(ctx)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Msg("Discarding unreadable update transient")
		transient = updates.NewTransient()
	}
	transient.Response = make(map[string]updates.UpdateDescriptor)

	transient = h.CheckForUpdates(ctx, n, transient)
	transient.LastChecked = now.UTC()
	if transient.Checked == nil {
		transient.Checked = make(map[string]string)
	}
	for _, product := range h.products(ctx, true) {
		transient.Checked[product.Filename] = product.Version
	}

	if err := store.Save(ctx, transient); err != nil {
		return transient, err
	}
	return transient, nil
}

// pluginVersion queries the update check for product. It returns nil when the
// product has no licence key or the server gave no usable answer.
func (h *Helper) pluginVersion(ctx context.Context, n *Notices, product Product) helperapi.Response {
	licence := h.Licence(ctx, product.ProductSlug)
	if licence.LicenceKey == "" {
		return nil
	}

	resp, err := h.api.PluginUpdateCheck(ctx, helperapi.Args{
		"plugin_name":    product.Name,
		"version":        product.Version,
		"api_product_id": product.ProductSlug,
		"licence_key":    licence.LicenceKey,
		"email":          licence.Email,
	})
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Debug().Err(err).Str("product", product.ProductSlug).Msg("Update check skipped")
		return nil
	}

	if resp.HasErrors() {
		h.HandleAPIErrors(ctx, n, product.ProductSlug, resp.Errors())
	}
	if len(resp) == 0 {
		return nil
	}
	return resp
}

// PluginInfo returns the licensing server's plugin information for slug. It
// makes no request unless slug is an active managed product with a stored
// key and email.
func (h *Helper) PluginInfo(ctx context.Context, n *Notices, slug string) helperapi.Response {
	if !h.IsProductInstalled(ctx, slug) {
		return nil
	}
	licence := h.Licence(ctx, slug)
	if licence.LicenceKey == "" || licence.Email == "" {
		return nil
	}

	resp, err := h.api.PluginInformation(ctx, helperapi.Args{
		"licence_key":    licence.LicenceKey,
		"email":          licence.Email,
		"api_product_id": slug,
	})
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Debug().Err(err).Str("product", slug).Msg("Plugin information unavailable")
		return nil
	}
	if resp.HasErrors() {
		h.HandleAPIErrors(ctx, n, slug, resp.Errors())
	}
	return resp
}

// PluginsAPI answers the host's plugin-details lookup. Requests other than
// plugin_information, or without a slug, get fallback back untouched.
func (h *Helper) PluginsAPI(ctx context.Context, n *Notices, action, slug string, fallback helperapi.Response) helperapi.Response {
	if action != ActionPluginInformation || slug == "" {
		return fallback
	}
	if info := h.PluginInfo(ctx, n, slug); len(info) > 0 {
		return info
	}
	if fallback.HasErrors() {
		h.HandleAPIErrors(ctx, n, slug, fallback.Errors())
	}
	return fallback
}
