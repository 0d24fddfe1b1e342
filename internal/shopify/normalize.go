package shopify

import (
	"strings"

	"storefront/internal/domain"
)

// imageURL picks url, then src, then originalSrc.
func imageURL(img *rawImage) string {
	if img == nil {
		return ""
	}
	for _, v := range []string{img.URL, img.Src, img.OriginalSrc} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func money(m *rawMoney) domain.Money {
	if m == nil {
		return domain.ParseMoney("0", "")
	}
	return domain.ParseMoney(m.Amount, m.CurrencyCode)
}

func variantPrice(v rawVariant) *rawMoney {
	if v.Price != nil {
		return v.Price
	}
	return v.PriceV2
}

// normalizeProduct flattens a raw product node.
//
// Field fallbacks:
//   - image: featuredImage, first images entry, first variant image, "".
//   - price: priceRange.minVariantPrice, first variant price, zero.
//   - title: title, handle, id.
//
// ok is false when the node carries no id (null node or a non-product search hit).
func normalizeProduct(raw *rawProduct) (domain.Product, bool) {
	if raw == nil || strings.TrimSpace(raw.ID) == "" {
		return domain.Product{}, false
	}

	variants := raw.Variants.items()
	images := raw.Images.items()

	p := domain.Product{
		ID:          raw.ID,
		Handle:      raw.Handle,
		Title:       firstNonEmpty(raw.Title, raw.Handle, raw.ID),
		Description: raw.Description,
		Vendor:      raw.Vendor,
		Tags:        cleanTags(raw.Tags),
	}

	for _, img := range images {
		if u := imageURL(&img); u != "" {
			p.Images = append(p.Images, u)
		}
	}

	p.ImageURL = imageURL(raw.FeaturedImage)
	if p.ImageURL == "" && len(p.Images) > 0 {
		p.ImageURL = p.Images[0]
	}
	if p.ImageURL == "" && len(variants) > 0 {
		p.ImageURL = imageURL(variants[0].Image)
	}

	switch {
	case raw.PriceRange != nil && raw.PriceRange.MinVariantPrice != nil:
		p.Price = money(raw.PriceRange.MinVariantPrice)
	case len(variants) > 0:
		p.Price = money(variantPrice(variants[0]))
	default:
		p.Price = money(nil)
	}

	p.Variants = make([]domain.Variant, 0, len(variants))
	for _, v := range variants {
		if strings.TrimSpace(v.ID) == "" {
			continue
		}
		available := true
		if v.AvailableForSale != nil {
			available = *v.AvailableForSale
		}
		vp := variantPrice(v)
		price := p.Price
		if vp != nil {
			price = money(vp)
		}
		p.Variants = append(p.Variants, domain.Variant{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: available,
			Price:            price,
			ImageURL:         imageURL(v.Image),
		})
	}
	return p, true
}

// normalizeCatalogEntry flattens a raw product node into a search record.
func normalizeCatalogEntry(raw *rawProduct) (domain.CatalogEntry, bool) {
	p, ok := normalizeProduct(raw)
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return domain.CatalogEntryFromProduct(p), true
}

// normalizeCartLine flattens a raw cart line. Lines without merchandise keep
// their id and quantity so they can still be removed.
func normalizeCartLine(raw rawCartLine) (domain.CartLine, bool) {
	if strings.TrimSpace(raw.ID) == "" {
		return domain.CartLine{}, false
	}
	line := domain.CartLine{
		ID:       raw.ID,
		Quantity: raw.Quantity,
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	m := raw.Merchandise
	if m == nil {
		line.UnitPrice = money(nil)
		return line, true
	}
	line.VariantID = m.ID
	line.UnitPrice = money(m.Price)
	line.ImageURL = imageURL(m.Image)

	productTitle := ""
	if m.Product != nil {
		line.ProductID = m.Product.ID
		line.Handle = m.Product.Handle
		productTitle = m.Product.Title
		if line.ImageURL == "" {
			line.ImageURL = imageURL(m.Product.FeaturedImage)
		}
	}
	line.Title = firstNonEmpty(productTitle, m.Title, line.Handle, m.ID)
	// Single-variant products report "Default Title".
	if m.Title != "" && m.Title != "Default Title" && m.Title != line.Title {
		line.VariantTitle = m.Title
	}
	return line, true
}

func normalizeCartLines(raw *rawCart) []domain.CartLine {
	if raw == nil {
		return []domain.CartLine{}
	}
	lines := make([]domain.CartLine, 0)
	for _, l := range raw.Lines.items() {
		if line, ok := normalizeCartLine(l); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func normalizeProductPage(conn *rawConnection[rawProduct]) domain.ProductPage {
	page := domain.ProductPage{Items: []domain.Product{}}
	if conn == nil {
		return page
	}
	for _, raw := range conn.items() {
		raw := raw
		if p, ok := normalizeProduct(&raw); ok {
			page.Items = append(page.Items, p)
		}
	}
	page.HasNextPage = conn.PageInfo.HasNextPage
	page.EndCursor = conn.PageInfo.EndCursor
	if page.EndCursor == "" {
		page.HasNextPage = false
	}
	return page
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
