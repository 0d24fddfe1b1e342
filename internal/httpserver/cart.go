package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/commerce"
)

type cartResponse struct {
	ID          string            `json:"id"`
	CheckoutURL string            `json:"checkoutUrl"`
	Lines       []domain.CartLine `json:"lines"`
	ItemCount   int               `json:"itemCount"`
	Subtotal    domain.Money      `json:"subtotal"`
	Pending     int               `json:"pendingMutations"`
}

func toCartResponse(st *commerce.Store) cartResponse {
	cart := st.Cart()
	lines := cart.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{
		ID:          cart.ID,
		CheckoutURL: cart.CheckoutURL,
		Lines:       lines,
		ItemCount:   cart.ItemCount(),
		Subtotal:    cart.Subtotal(),
		Pending:     st.InFlight(),
	}
}

func (h *handlers) getCart(c *gin.Context, st *commerce.Store) {
	if st.State() != commerce.StateReady {
		if err := st.Init(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toCartResponse(st))
}

func (h *handlers) addCartLine(c *gin.Context, st *commerce.Store) {
	var in commerce.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := st.AddToCart(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(st))
}

func (h *handlers) removeCartLine(c *gin.Context, st *commerce.Store) {
	if err := st.RemoveFromCart(c.Request.Context(), c.Param("lineId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(st))
}

// checkout redirects to the remote-issued checkout page.
func (h *handlers) checkout(c *gin.Context, st *commerce.Store) {
	if st.State() != commerce.StateReady {
		if err := st.Init(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
	}
	url := st.CheckoutURL()
	if url == "" {
		writeError(c, domain.ErrRemoteUnavailable)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}
