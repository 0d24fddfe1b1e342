package shopify

import "encoding/json"

// Raw response shapes. Every field is optional: the API may omit connections,
// return edges or nodes, or null out nested objects.

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type rawPageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type rawEdge[T any] struct {
	Node *T `json:"node"`
}

type rawConnection[T any] struct {
	Edges    []rawEdge[T] `json:"edges"`
	Nodes    []*T         `json:"nodes"`
	PageInfo rawPageInfo  `json:"pageInfo"`
}

// items returns the connection's nodes whichever form they arrived in,
// skipping null entries.
func (c *rawConnection[T]) items() []T {
	if c == nil {
		return nil
	}
	var out []T
	if len(c.Nodes) > 0 {
		for _, n := range c.Nodes {
			if n != nil {
				out = append(out, *n)
			}
		}
		return out
	}
	for _, e := range c.Edges {
		if e.Node != nil {
			out = append(out, *e.Node)
		}
	}
	return out
}

type rawImage struct {
	URL         string `json:"url"`
	Src         string `json:"src"`
	OriginalSrc string `json:"originalSrc"`
}

type rawMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type rawPriceRange struct {
	MinVariantPrice *rawMoney `json:"minVariantPrice"`
}

type rawVariant struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	AvailableForSale *bool     `json:"availableForSale"`
	Image            *rawImage `json:"image"`
	Price            *rawMoney `json:"price"`
	// PriceV2 is the pre-2022 price field.
	PriceV2 *rawMoney `json:"priceV2"`
}

type rawProduct struct {
	ID            string                     `json:"id"`
	Handle        string                     `json:"handle"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	Vendor        string                     `json:"vendor"`
	Tags          []string                   `json:"tags"`
	FeaturedImage *rawImage                  `json:"featuredImage"`
	Images        *rawConnection[rawImage]   `json:"images"`
	PriceRange    *rawPriceRange             `json:"priceRange"`
	Variants      *rawConnection[rawVariant] `json:"variants"`
}

type rawMerchandise struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Image   *rawImage   `json:"image"`
	Price   *rawMoney   `json:"price"`
	Product *rawProduct `json:"product"`
}

type rawCartLine struct {
	ID          string          `json:"id"`
	Quantity    int             `json:"quantity"`
	Merchandise *rawMerchandise `json:"merchandise"`
}

type rawCart struct {
	ID          string                      `json:"id"`
	CheckoutURL string                      `json:"checkoutUrl"`
	Lines       *rawConnection[rawCartLine] `json:"lines"`
}

type cartCreateData struct {
	CartCreate *struct {
		Cart       *rawCart    `json:"cart"`
		UserErrors []userError `json:"userErrors"`
	} `json:"cartCreate"`
}

type cartData struct {
	Cart *rawCart `json:"cart"`
}

type cartMutationPayload struct {
	Cart       *rawCart    `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

type cartLinesAddData struct {
	CartLinesAdd *cartMutationPayload `json:"cartLinesAdd"`
}

type cartLinesRemoveData struct {
	CartLinesRemove *cartMutationPayload `json:"cartLinesRemove"`
}

type nodeData struct {
	Node *rawProduct `json:"node"`
}

type productData struct {
	Product *rawProduct `json:"product"`
}

type searchData struct {
	Search *rawConnection[rawProduct] `json:"search"`
}

type productsData struct {
	Products *rawConnection[rawProduct] `json:"products"`
}
