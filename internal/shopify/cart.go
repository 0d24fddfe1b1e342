package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// CartLinesPageSize bounds how many lines one fetch returns.
const CartLinesPageSize = 20

// CreateCart creates an empty remote cart.
func (c *Client) CreateCart(ctx context.Context) (domain.Cart, error) {
	var data cartCreateData
	if err := c.do(ctx, "cartCreate", createCartMutation, nil, &data); err != nil {
		return domain.Cart{}, err
	}
	if data.CartCreate == nil {
		return domain.Cart{}, fmt.Errorf("cartCreate: %w: missing payload", domain.ErrRemoteUnavailable)
	}
	if err := userErrorsErr("cartCreate", data.CartCreate.UserErrors); err != nil {
		return domain.Cart{}, err
	}
	cart := data.CartCreate.Cart
	if cart == nil || strings.TrimSpace(cart.ID) == "" {
		return domain.Cart{}, fmt.Errorf("cartCreate: %w: response lacks cart id", domain.ErrRemoteUnavailable)
	}
	c.logger.Info("cart created", zap.String("cart_id", cart.ID))
	return domain.Cart{ID: cart.ID, CheckoutURL: cart.CheckoutURL, Lines: []domain.CartLine{}}, nil
}

// FetchCartLines returns up to CartLinesPageSize lines and the checkout URL.
// A cart the backend no longer knows yields ErrCartStale; a cart without line
// data yields an empty slice.
func (c *Client) FetchCartLines(ctx context.Context, cartID string) ([]domain.CartLine, string, error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, "", fmt.Errorf("cart: %w: empty cart id", domain.ErrCartStale)
	}
	var data cartData
	vars := map[string]any{"cartId": cartID, "first": CartLinesPageSize}
	if err := c.do(ctx, "cart", cartLinesQuery, vars, &data); err != nil {
		return nil, "", err
	}
	if data.Cart == nil {
		return nil, "", fmt.Errorf("cart %s: %w", cartID, domain.ErrCartStale)
	}
	return normalizeCartLines(data.Cart), data.Cart.CheckoutURL, nil
}

// AddLine adds quantity of a variant. Callers re-fetch lines afterwards; the
// mutation payload is only inspected for errors.
func (c *Client) AddLine(ctx context.Context, cartID, variantID string, quantity int) error {
	if strings.TrimSpace(variantID) == "" {
		return domain.ErrVariantRequired
	}
	if quantity <= 0 {
		quantity = 1
	}
	var data cartLinesAddData
	vars := map[string]any{
		"cartId": cartID,
		"lines":  []map[string]any{{"merchandiseId": variantID, "quantity": quantity}},
	}
	if err := c.do(ctx, "cartLinesAdd", addLinesMutation, vars, &data); err != nil {
		return err
	}
	return mutationErr("cartLinesAdd", data.CartLinesAdd)
}

// RemoveLine removes one line. Same re-fetch contract as AddLine.
func (c *Client) RemoveLine(ctx context.Context, cartID, lineID string) error {
	if strings.TrimSpace(lineID) == "" {
		return errors.New("line id required")
	}
	var data cartLinesRemoveData
	vars := map[string]any{"cartId": cartID, "lineIds": []string{lineID}}
	if err := c.do(ctx, "cartLinesRemove", removeLinesMutation, vars, &data); err != nil {
		return err
	}
	return mutationErr("cartLinesRemove", data.CartLinesRemove)
}

func mutationErr(op string, payload *cartMutationPayload) error {
	if payload == nil {
		return fmt.Errorf("%s: %w: missing payload", op, domain.ErrRemoteUnavailable)
	}
	if err := userErrorsErr(op, payload.UserErrors); err != nil {
		return err
	}
	if payload.Cart == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrCartStale)
	}
	return nil
}
