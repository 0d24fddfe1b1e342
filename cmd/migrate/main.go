package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	var (
		configPath string
		down       int
		all        bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "Path to TOML config file")
	flag.IntVar(&down, "down", 0, "Revert this many migrations instead of applying")
	flag.BoolVar(&all, "down-all", false, "Revert every migration")
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
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{})
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch {
	case all:
		err = migrate.Rollback(ctx, pool, 0)
	case down > 0:
		err = migrate.Rollback(ctx, pool, down)
	default:
		err = migrate.Apply(ctx, pool)
	}
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("migrations done", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
