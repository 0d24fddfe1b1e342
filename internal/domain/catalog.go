package domain

// CatalogEntry is the flattened, read-only record used for local search.
type CatalogEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Handle   string   `json:"handle"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Price    Money    `json:"price"`
	Vendor   string   `json:"vendor,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// CatalogEntryFromProduct flattens a resolved product.
func CatalogEntryFromProduct(p Product) CatalogEntry {
	return CatalogEntry{
		ID:       p.ID,
		Title:    p.Title,
		Handle:   p.Handle,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Vendor:   p.Vendor,
		Tags:     p.Tags,
	}
}
