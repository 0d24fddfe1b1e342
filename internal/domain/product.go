package domain

// Product is the canonical product record resolved from the commerce API.
type Product struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Price       Money     `json:"price"`
	Variants    []Variant `json:"variants"`
}

// Variant is one purchasable configuration of a product (a ring size, a metal).
type Variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"availableForSale"`
	Price            Money  `json:"price"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

// DefaultVariantID returns the only variant's id when the product has exactly
// one, so it can be added to the cart without a selection step.
func (p Product) DefaultVariantID() string {
	if len(p.Variants) == 1 {
		return p.Variants[0].ID
	}
	return ""
}

// ProductPage is one cursor-paginated slice of products.
type ProductPage struct {
	Items       []Product `json:"items"`
	HasNextPage bool      `json:"hasNextPage"`
	EndCursor   string    `json:"endCursor,omitempty"`
}
