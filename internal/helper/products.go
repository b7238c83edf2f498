package helper

import (
	"context"
	"sort"

	"github.com/jobmanager/helper/internal/logging"
)

// ProductTypePlugin is the only kind of managed product.
const ProductTypePlugin = "plugin"

// Product is a licence-managed add-on, derived from installed plugin metadata.
type Product struct {
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	ProductSlug string `json:"product_slug"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
}

// ManagedProducts returns installed add-ons declaring a product tag, keyed by
// product slug. With activeOnly, disabled add-ons are left out.
func (h *Helper) ManagedProducts(ctx context.Context, activeOnly bool) (map[string]Product, error) {
	installed, err := h.inventory.Plugins()
	if err != nil {
		return nil, err
	}

	// Visit filenames in order so duplicate product tags resolve the same way
	// every time (last filename wins).
	filenames := make([]string, 0, len(installed))
	for filename := range installed {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)

	products := make(map[string]Product)
	for _, filename := range filenames {
		p := installed[filename]
		if p.Product == "" || (activeOnly && !p.Active) {
			continue
		}
		products[p.Product] = Product{
			Filename:    filename,
			Name:        p.Name,
			Version:     p.Version,
			ProductSlug: p.Product,
			Type:        ProductTypePlugin,
			Active:      p.Active,
		}
	}
	return products, nil
}

// products is ManagedProducts for internal callers: an unreadable inventory is
// logged and treated as "nothing installed".
func (h *Helper) products(ctx context.Context, activeOnly bool) map[string]Product {
	products, err := h.ManagedProducts(ctx, activeOnly)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Error().Err(err).Msg("Failed to enumerate installed add-ons")
		return map[string]Product{}
	}
	return products
}

// IsProductInstalled reports whether slug belongs to an active managed add-on.
func (h *Helper) IsProductInstalled(ctx context.Context, slug string) bool {
	_, ok := h.products(ctx, true)[slug]
	return ok
}

// HasLicencedProducts reports whether any active add-on is licence-managed.
func (h *Helper) HasLicencedProducts(ctx context.Context) bool {
	return len(h.products(ctx, true)) > 0
}

// productByFilename finds the managed product installed as filename.
func (h *Helper) productByFilename(ctx context.Context, filename string, activeOnly bool) (Product, bool) {
	for _, p := range h.products(ctx, activeOnly) {
		if p.Filename == filename {
			return p, true
		}
	}
	return Product{}, false
}

func sortedSlugs(products map[string]Product) []string {
	slugs := make([]string, 0, len(products))
	for slug := range products {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
