package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/catalog"
	"storefront/internal/service/commerce"
	"storefront/internal/service/design"
	"storefront/internal/service/newsletter"
	"storefront/internal/service/session"
)

type sessionService interface {
	Issue(ctx context.Context) (session.Session, error)
	Lookup(ctx context.Context, token string) (string, error)
	TTLSeconds() int
}

type storeRegistry interface {
	Get(ctx context.Context, sessionID string) (*commerce.Store, error)
}

type productService interface {
	List(ctx context.Context, pageSize int, after string) (domain.ProductPage, error)
	GetByHandle(ctx context.Context, handle string) (domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
}

type catalogCache interface {
	Load(ctx context.Context) ([]domain.CatalogEntry, error)
	Loading() bool
}

type searchService interface {
	Search(ctx context.Context, query string, limit int) (catalog.SearchResult, error)
}

type newsletterService interface {
	Subscribe(ctx context.Context, sessionID, email, source string) (*domain.Subscriber, error)
	Popup(ctx context.Context, sessionID string) newsletter.PopupState
	RecordShown(ctx context.Context, sessionID string) (domain.PopupPrefs, error)
	RecordDismissed(ctx context.Context, sessionID string) (domain.PopupPrefs, error)
}

type designService interface {
	Submit(ctx context.Context, in design.Input, sketch *design.Sketch) (*domain.DesignSubmission, error)
	List(ctx context.Context, limit int) ([]domain.DesignSubmission, error)
}

// Deps wires services into the router. Newsletter and Designs are optional;
// their routes are left out when nil.
type Deps struct {
	Sessions   sessionService
	Stores     storeRegistry
	Products   productService
	Catalog    catalogCache
	Search     searchService
	Newsletter newsletterService
	Designs    designService
	// ReadyChecks are pinged by /readyz.
	ReadyChecks map[string]Pinger
}

// Options tunes HTTP behavior.
type Options struct {
	AllowedOrigins []string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps, opts Options) (*gin.Engine, *eventsHandler, error) {
	if deps.Sessions == nil || deps.Stores == nil {
		return nil, nil, errors.New("sessions and stores are required")
	}
	if deps.Products == nil || deps.Catalog == nil || deps.Search == nil {
		return nil, nil, errors.New("catalog services are required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	// Product ids contain slashes; clients send them percent-encoded.
	router.UseRawPath = true
	router.Use(requestID(), requestLogger(logger), recovery(logger), metricsMiddleware())
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", sessionHeader, requestIDHeader},
			ExposeHeaders:    []string{sessionHeader, requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.ReadyChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{deps: deps, logger: logger, secureCookies: opts.SecureCookies}
	events := newEventsHandler(logger, opts.AllowedOrigins)

	api := router.Group("/api")
	api.POST("/session", h.issueSession)

	scoped := api.Group("", sessionMiddleware(deps.Sessions, opts.SecureCookies, logger))
	scoped.GET("/session/events", h.withStore(events.serve))

	scoped.GET("/cart", h.withStore(h.getCart))
	scoped.POST("/cart/lines", h.withStore(h.addCartLine))
	scoped.DELETE("/cart/lines/:lineId", h.withStore(h.removeCartLine))
	scoped.GET("/cart/checkout", h.withStore(h.checkout))

	scoped.GET("/favorites", h.withStore(h.listFavorites))
	scoped.POST("/favorites", h.withStore(h.addFavorite))
	scoped.DELETE("/favorites/:productId", h.withStore(h.removeFavorite))
	scoped.POST("/favorites/:productId/move-to-cart", h.withStore(h.moveFavoriteToCart))

	api.GET("/products", h.listProducts)
	api.GET("/products/:handle", h.productByHandle)
	api.GET("/products/id/*id", h.productByID)
	api.GET("/search", h.search)
	api.GET("/catalog", h.catalogEntries)

	if deps.Newsletter != nil {
		scoped.POST("/newsletter", h.subscribe)
		scoped.GET("/popup", h.popup)
		scoped.POST("/popup/shown", h.popupShown)
		scoped.POST("/popup/dismiss", h.popupDismissed)
	}
	if deps.Designs != nil {
		api.POST("/designs", h.submitDesign)
		api.GET("/designs", h.listDesigns)
	}

	return router, events, nil
}

type handlers struct {
	deps          Deps
	logger        *zap.Logger
	secureCookies bool
}
