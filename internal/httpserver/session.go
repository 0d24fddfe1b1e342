package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/service/commerce"
)

const (
	sessionCookie = "sf_session"
	sessionHeader = "X-Session-Token"
	sessionKey    = "sessionID"
	storeKey      = "commerceStore"
)

func sessionToken(c *gin.Context) string {
	if tok := strings.TrimSpace(c.GetHeader(sessionHeader)); tok != "" {
		return tok
	}
	if tok, err := c.Cookie(sessionCookie); err == nil && tok != "" {
		return tok
	}
	// Browsers cannot set headers on websocket upgrades.
	return strings.TrimSpace(c.Query("token"))
}

// sessionMiddleware resolves the caller's session, issuing a new one when the
// token is missing or expired.
func sessionMiddleware(svc sessionService, secure bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := sessionToken(c); tok != "" {
			if sid, err := svc.Lookup(c.Request.Context(), tok); err == nil {
				c.Set(sessionKey, sid)
				c.Next()
				return
			}
		}
		sess, err := svc.Issue(c.Request.Context())
		if err != nil {
			logger.Error("issue session failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "could not start session"})
			return
		}
		setSessionCookie(c, sess.Token, svc.TTLSeconds(), secure)
		c.Set(sessionKey, sess.ID)
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", secure, true)
	c.Header(sessionHeader, token)
}

func (h *handlers) issueSession(c *gin.Context) {
	sess, err := h.deps.Sessions.Issue(c.Request.Context())
	if err != nil {
		h.logger.Error("issue session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "could not start session"})
		return
	}
	setSessionCookie(c, sess.Token, h.deps.Sessions.TTLSeconds(), h.secureCookies)
	c.JSON(http.StatusCreated, sess)
}

// withStore resolves the session's commerce store before calling next. An
// initialization failure is logged but does not block favorites; cart
// handlers retry initialization themselves.
func (h *handlers) withStore(next func(c *gin.Context, st *commerce.Store)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetString(sessionKey)
		st, err := h.deps.Stores.Get(c.Request.Context(), sid)
		if err != nil {
			h.logger.Warn("commerce store init failed", zap.String("session_id", sid), zap.Error(err))
		}
		if st == nil {
			writeError(c, err)
			return
		}
		next(c, st)
	}
}
