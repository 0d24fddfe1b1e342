package domain

import "github.com/shopspring/decimal"

// FavoriteEntry is a locally persisted bookmark of a product.
type FavoriteEntry struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Handle    string          `json:"handle,omitempty"`
}

// HasVariant reports whether the entry can be moved straight into the cart.
func (f FavoriteEntry) HasVariant() bool {
	return f.VariantID != ""
}
