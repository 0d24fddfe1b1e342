package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/contentstore"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/mailer"
	"storefront/internal/migrate"
	"storefront/internal/persistence"
	designrepo "storefront/internal/repository/design"
	subscriberrepo "storefront/internal/repository/subscriber"
	"storefront/internal/service/catalog"
	"storefront/internal/service/commerce"
	designsvc "storefront/internal/service/design"
	"storefront/internal/service/newsletter"
	"storefront/internal/service/session"
	"storefront/internal/shopify"
)

const (
	sessionSweepInterval = 10 * time.Minute
	storeIdleTimeout     = 30 * time.Minute
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "Path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	client, err := shopify.New(shopify.Options{
		ShopDomain: cfg.ShopDomain,
		Token:      cfg.StorefrontToken,
		APIVersion: cfg.StorefrontAPIVersion,
		Timeout:    cfg.RemoteTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("init storefront client", zap.Error(err))
	}

	readyChecks := map[string]httpserver.Pinger{}

	var store persistence.Adapter
	if cfg.RedisURL != "" {
		rdb, err := persistence.NewRedis(ctx, cfg.RedisURL, cfg.SessionTTL, logger)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		readyChecks["redis"] = rdb
		store = rdb
	} else {
		logger.Warn("REDIS_URL not set, session records are kept in memory")
		store = persistence.NewMemory(logger)
	}

	pool, err := connectDB(ctx, cfg, logger)
	if err != nil {
		logger.Warn("database unavailable, newsletter and design routes disabled", zap.Error(err))
	}
	if pool != nil {
		defer pool.Close()
		readyChecks["db"] = pool
	}

	registry := commerce.NewRegistry(client, store, logger, commerce.Options{
		SerializeMutations: cfg.SerializeCartMutations,
	})
	defer registry.Close()

	provider := catalog.NewProvider(client, logger)
	sessions := session.New(cfg.SessionTTL)

	deps := httpserver.Deps{
		Sessions:    sessions,
		Stores:      registry,
		Products:    catalog.New(client),
		Catalog:     provider,
		Search:      catalog.NewSearcher(provider, client, logger),
		ReadyChecks: readyChecks,
	}
	if pool != nil {
		deps.Newsletter = newsletter.New(subscriberrepo.NewPostgres(pool, logger), newMailer(cfg, logger), store, cfg.WelcomeDiscountCode, logger)
		if uploader := newUploader(cfg, logger); uploader != nil {
			deps.Designs = designsvc.New(designrepo.NewPostgres(pool, logger), uploader, cfg.SketchBucket, logger)
		}
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps, httpserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, sessions, registry, logger)

	// Warm the catalog so local search is ready before the first shopper.
	go func() {
		if _, err := provider.Load(sweepCtx); err != nil {
			logger.Warn("catalog warm-up incomplete", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func connectDB(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.DBConnString == "" {
		return nil, errors.New("DB_DSN not set")
	}
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{})
	if err != nil {
		return nil, err
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database ready")
	return pool, nil
}

// newMailer returns nil when email is not configured; welcome emails are then skipped.
func newMailer(cfg config.Config, logger *zap.Logger) mailer.Sender {
	m, err := mailer.New(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, logger)
	if err != nil {
		logger.Warn("welcome emails disabled", zap.Error(err))
		return nil
	}
	return m
}

func newUploader(cfg config.Config, logger *zap.Logger) *contentstore.Client {
	c, err := contentstore.New(cfg.BackendURL, cfg.BackendAnonKey, logger)
	if err != nil {
		logger.Warn("design submissions disabled", zap.Error(err))
		return nil
	}
	return c
}

// sweepSessions expires tokens and releases the stores of expired or idle
// sessions.
func sweepSessions(ctx context.Context, sessions *session.Service, registry *commerce.Registry, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := sessions.Sweep()
			if released := registry.Sweep(expired, storeIdleTimeout); len(expired) > 0 || released > 0 {
				logger.Debug("session sweep",
					zap.Int("expired", len(expired)),
					zap.Int("released", released),
					zap.Int("live_stores", registry.Len()),
				)
			}
		}
	}
}
