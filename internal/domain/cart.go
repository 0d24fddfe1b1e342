package domain

import "github.com/shopspring/decimal"

// Cart is the remote-backed cart for one shopper session.
type Cart struct {
	ID          string     `json:"id"`
	CheckoutURL string     `json:"checkoutUrl"`
	Lines       []CartLine `json:"lines"`
}

// CartLine is one quantity-bearing entry referencing a purchasable variant.
type CartLine struct {
	ID        string `json:"id"`
	VariantID string `json:"variantId"`
	ProductID string `json:"productId,omitempty"`
	Handle    string `json:"handle,omitempty"`
	Title     string `json:"title"`
	// VariantTitle is empty for single-variant products.
	VariantTitle string `json:"variantTitle,omitempty"`
	UnitPrice    Money  `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// CartRef is the persisted pointer to the remote cart.
type CartRef struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

// ItemCount sums line quantities for header badges.
func (c Cart) ItemCount() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Subtotal sums unit price times quantity. Lines are assumed to share a currency;
// the first non-empty currency code wins.
func (c Cart) Subtotal() Money {
	sum := decimal.Zero
	currency := ""
	for _, l := range c.Lines {
		sum = sum.Add(l.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(l.Quantity))))
		if currency == "" {
			currency = l.UnitPrice.CurrencyCode
		}
	}
	return Money{Amount: sum, CurrencyCode: currency}
}

// Ref returns the persisted form of the cart.
func (c Cart) Ref() CartRef {
	return CartRef{ID: c.ID, CheckoutURL: c.CheckoutURL}
}

// Clone copies the cart including its line slice.
func (c Cart) Clone() Cart {
	out := c
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
