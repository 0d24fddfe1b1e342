package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/exporter"
	"storefront/internal/logging"
	"storefront/internal/service/catalog"
	"storefront/internal/shopify"
)

func main() {
	var (
		configPath string
		outPath    string
		partial    bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "Path to TOML config file")
	flag.StringVar(&outPath, "out", "", "Output CSV path (default stdout)")
	flag.BoolVar(&partial, "partial", false, "Write rows loaded before a remote failure")
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

	client, err := shopify.New(shopify.Options{
		ShopDomain: cfg.ShopDomain,
		Token:      cfg.StorefrontToken,
		APIVersion: cfg.StorefrontAPIVersion,
		Timeout:    cfg.RemoteTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("init storefront client", zap.Error(err))
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			logger.Fatal("create output", zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp := exporter.NewCSVExporter(out, catalog.NewProvider(client, logger))
	exp.Partial = partial

	start := time.Now()
	count, err := exp.Run(ctx)
	if err != nil {
		logger.Error("export failed", zap.Int("rows", count), zap.Error(err))
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Exported %d catalog entries in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
