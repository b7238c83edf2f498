package helper

import (
	"context"
	"strings"

	"github.com/jobmanager/helper/internal/logging"
	"github.com/jobmanager/helper/internal/options"
)

// Licence-management form actions.
const (
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
)

// Link labels for add-on action links.
const (
	LabelManageLicence   = "Manage License"
	LabelActivateLicence = "Activate License"
)

// LicenceRequest is a submission of the licence-management form.
type LicenceRequest struct {
	Action      string `json:"action"`
	ProductSlug string `json:"product_slug"`
	LicenceKey  string `json:"licence_key"`
	Email       string `json:"email"`
}

// ManageLicence handles a licence-management form submission. It returns false
// when the request names no active managed product or an unknown action.
func (h *Helper) ManageLicence(ctx context.Context, n *Notices, req LicenceRequest) bool {
	slug := strings.TrimSpace(req.ProductSlug)
	if slug == "" || req.Action == "" || !h.IsProductInstalled(ctx, slug) {
		return false
	}

	switch req.Action {
	case ActionActivate:
		h.ActivateLicence(ctx, n, slug, strings.TrimSpace(req.LicenceKey), strings.TrimSpace(req.Email))
	case ActionDeactivate:
		h.DeactivateLicence(ctx, n, slug)
	default:
		return false
	}
	return true
}

// PluginActivated runs when a managed add-on is enabled: a previously
// dismissed "licence key missing" notice is shown again.
func (h *Helper) PluginActivated(ctx context.Context, filename string) {
	product, ok := h.productByFilename(ctx, filename, false)
	if !ok {
		return
	}
	if err := h.options.Delete(ctx, product.ProductSlug, options.KeyHideKeyNotice); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("product", product.ProductSlug).Msg("Failed to reset licence notice")
	}
}

// PluginDeactivated runs when a managed add-on is disabled and releases its
// licence. It does nothing when the licence is already released, so the hook
// may fire more than once for the same change.
func (h *Helper) PluginDeactivated(ctx context.Context, n *Notices, filename string) {
	product, ok := h.productByFilename(ctx, filename, false)
	if !ok {
		return
	}
	if !h.Licence(ctx, product.ProductSlug).Active() {
		return
	}
	h.DeactivateLicence(ctx, n, product.ProductSlug)
}

// DismissKeyNotice hides the "licence key missing" notice for slug.
func (h *Helper) DismissKeyNotice(ctx context.Context, slug string) bool {
	if !h.IsProductInstalled(ctx, slug) {
		return false
	}
	if err := h.options.Update(ctx, slug, options.KeyHideKeyNotice, true); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Str("product", slug).Msg("Failed to dismiss licence notice")
		return false
	}
	return true
}

// KeyNotices lists active managed products that still need a licence key and
// whose notice has not been dismissed.
func (h *Helper) KeyNotices(ctx context.Context) []Product {
	products := h.products(ctx, true)
	var out []Product
	for _, slug := range sortedSlugs(products) {
		if h.Licence(ctx, slug).LicenceKey != "" {
			continue
		}
		var hidden bool
		h.read(ctx, slug, options.KeyHideKeyNotice, &hidden)
		if hidden {
			continue
		}
		out = append(out, products[slug])
	}
	return out
}

// LicenceLink returns the action-link label for the add-on installed as
// filename, or false when it is not an active managed product.
func (h *Helper) LicenceLink(ctx context.Context, filename string) (string, bool) {
	product, ok := h.productByFilename(ctx, filename, true)
	if !ok {
		return "", false
	}
	if h.Licence(ctx, product.ProductSlug).LicenceKey != "" {
		return LabelManageLicence, true
	}
	return LabelActivateLicence, true
}

// ProductStatus summarises one managed product for display.
type ProductStatus struct {
	Product
	LicenceKey    string   `json:"licence_key,omitempty"` // masked
	Email         string   `json:"email,omitempty"`
	LicenceActive bool     `json:"licence_active"`
	Errors        []string `json:"errors,omitempty"`
	HideKeyNotice bool     `json:"hide_key_notice"`
	// LicenceLink is the action-link label; empty for inactive add-ons.
	LicenceLink string `json:"licence_link,omitempty"`
}

// Statuses returns the licence state of every installed managed product.
func (h *Helper) Statuses(ctx context.Context) []ProductStatus {
	products := h.products(ctx, false)
	out := make([]ProductStatus, 0, len(products))
	for _, slug := range sortedSlugs(products) {
		licence := h.Licence(ctx, slug)
		var hidden bool
		h.read(ctx, slug, options.KeyHideKeyNotice, &hidden)
		link, _ := h.LicenceLink(ctx, products[slug].Filename)
		out = append(out, ProductStatus{
			Product:       products[slug],
			LicenceKey:    MaskKey(licence.LicenceKey),
			Email:         licence.Email,
			LicenceActive: licence.Active(),
			Errors:        licence.Errors.Messages(),
			HideKeyNotice: hidden,
			LicenceLink:   link,
		})
	}
	return out
}

// MaskKey keeps only the last four characters of a licence key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
