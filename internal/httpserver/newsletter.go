package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

func (h *handlers) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	sub, err := h.deps.Newsletter.Subscribe(c.Request.Context(), c.GetString(sessionKey), req.Email, req.Source)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": true, "email": sub.Email})
}

func (h *handlers) popup(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Newsletter.Popup(c.Request.Context(), c.GetString(sessionKey)))
}

func (h *handlers) popupShown(c *gin.Context) {
	prefs, err := h.deps.Newsletter.RecordShown(c.Request.Context(), c.GetString(sessionKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *handlers) popupDismissed(c *gin.Context) {
	prefs, err := h.deps.Newsletter.RecordDismissed(c.Request.Context(), c.GetString(sessionKey))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}
