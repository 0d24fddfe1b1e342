package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/service/commerce"
)

type favoriteRequest struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId"`
	Title     string          `json:"title"`
	ImageURL  string          `json:"imageUrl"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Handle    string          `json:"handle"`
}

func (h *handlers) listFavorites(c *gin.Context, st *commerce.Store) {
	c.JSON(http.StatusOK, gin.H{"items": st.Favorites()})
}

func (h *handlers) addFavorite(c *gin.Context, st *commerce.Store) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	added, err := st.AddToFavorites(c.Request.Context(), domain.FavoriteEntry{
		ProductID: req.ProductID,
		VariantID: strings.TrimSpace(req.VariantID),
		Title:     strings.TrimSpace(req.Title),
		ImageURL:  req.ImageURL,
		Price:     req.Price,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		Handle:    req.Handle,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"items": st.Favorites()})
}

func (h *handlers) removeFavorite(c *gin.Context, st *commerce.Store) {
	if _, err := st.RemoveFromFavorites(c.Request.Context(), c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": st.Favorites()})
}

func (h *handlers) moveFavoriteToCart(c *gin.Context, st *commerce.Store) {
	entry, ok := st.Favorite(c.Param("productId"))
	if !ok {
		writeError(c, domain.ErrNotFound)
		return
	}
	if err := st.MoveToCartFromFavorites(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCartResponse(st), "favorites": st.Favorites()})
}
