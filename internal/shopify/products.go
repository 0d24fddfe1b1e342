package shopify

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// FetchProductByID resolves a global product id.
func (c *Client) FetchProductByID(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	var data nodeData
	if err := c.do(ctx, "productById", productByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return domain.Product{}, err
	}
	p, ok := normalizeProduct(data.Node)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	return p, nil
}

// FetchProductByHandle resolves a product by its slug.
func (c *Client) FetchProductByHandle(ctx context.Context, handle string) (domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	var data productData
	if err := c.do(ctx, "productByHandle", productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return domain.Product{}, err
	}
	p, ok := normalizeProduct(data.Product)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %q: %w", handle, domain.ErrProductNotFound)
	}
	return p, nil
}

// SearchProducts runs a cursor-paginated text search. A blank query returns an
// empty page without a request.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int, cursor string) (domain.ProductPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.ProductPage{Items: []domain.Product{}}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	vars := map[string]any{"query": query, "first": limit}
	if cursor != "" {
		vars["after"] = cursor
	}
	var data searchData
	if err := c.do(ctx, "search", searchProductsQuery, vars, &data); err != nil {
		return domain.ProductPage{}, err
	}
	return normalizeProductPage(data.Search), nil
}

// FetchProductsPaged lists products after the given cursor.
func (c *Client) FetchProductsPaged(ctx context.Context, pageSize int, after string) (domain.ProductPage, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	vars := map[string]any{"first": pageSize}
	if after != "" {
		vars["after"] = after
	}
	var data productsData
	if err := c.do(ctx, "products", productsPagedQuery, vars, &data); err != nil {
		return domain.ProductPage{}, err
	}
	return normalizeProductPage(data.Products), nil
}
