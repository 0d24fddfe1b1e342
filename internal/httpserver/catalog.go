package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/catalog"
)

func (h *handlers) listProducts(c *gin.Context) {
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	page, err := h.deps.Products.List(c.Request.Context(), pageSize, c.Query("after"))
	if err != nil {
		writeError(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []domain.Product{}
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) productByHandle(c *gin.Context) {
	p, err := h.deps.Products.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) productByID(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")
	p, err := h.deps.Products.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	res, err := h.deps.Search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type catalogResponse struct {
	Items   []domain.CatalogEntry `json:"items"`
	Loading bool                  `json:"loading"`
	Error   string                `json:"error,omitempty"`
}

// catalogEntries serves the session-cached catalog, loading it on first use.
// A failed load still returns whatever pages arrived before the failure.
func (h *handlers) catalogEntries(c *gin.Context) {
	entries, err := h.deps.Catalog.Load(c.Request.Context())
	entries = catalog.FilterByVendor(entries, c.Query("vendor"))
	entries = catalog.FilterByTag(entries, c.Query("tag"))
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	resp := catalogResponse{Items: entries, Loading: h.deps.Catalog.Loading()}
	if err != nil {
		resp.Error = "catalog partially unavailable"
	}
	c.JSON(http.StatusOK, resp)
}
