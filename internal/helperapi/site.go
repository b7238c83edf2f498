package helperapi

import "context"

type ctxKey string

const networkAdminKey ctxKey = "helperapi_network_admin"

// SiteIdentity resolves the "instance" sent with every licensing request.
type SiteIdentity struct {
	SiteURL        string
	NetworkSiteURL string
	Multisite      bool
}

// WithNetworkAdmin marks ctx as running within network administration scope.
func WithNetworkAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, networkAdminKey, true)
}

// IsNetworkAdmin reports whether ctx was marked with WithNetworkAdmin.
func IsNetworkAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(networkAdminKey).(bool)
	return v
}

// Instance returns the network-wide URL on multisite installs or in network
// admin scope, and the single-site URL otherwise.
func (s SiteIdentity) Instance(ctx context.Context) string {
	if s.Multisite || IsNetworkAdmin(ctx) {
		if s.NetworkSiteURL != "" {
			return s.NetworkSiteURL
		}
	}
	return s.SiteURL
}
