// Package catalog serves product lookups and a session-cached catalog prefix
// used for local search.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const (
	// PageSize is the listing page size used when loading the catalog.
	PageSize = 100
	// MaxPages bounds the cached catalog to MaxPages*PageSize entries.
	MaxPages = 3
	// LoadTimeout bounds the whole catalog load.
	LoadTimeout = 30 * time.Second
)

type pager interface {
	FetchProductsPaged(ctx context.Context, pageSize int, after string) (domain.ProductPage, error)
}

// Provider loads a bounded prefix of the catalog once and serves it read-only.
type Provider struct {
	remote pager
	logger *zap.Logger

	once sync.Once

	mu      sync.RWMutex
	entries []domain.CatalogEntry
	loading bool
	loaded  bool
	err     error
}

func NewProvider(remote pager, logger *zap.Logger) *Provider {
	return &Provider{remote: remote, logger: logging.OrNop(logger).Named("catalog")}
}

// Load fetches up to MaxPages pages the first time it is called; later calls
// return the cached result without touching the remote. Concurrent callers
// wait for the first load. A failure is kept in Err and pages fetched before
// it stay available.
//
// The load is shared by every caller, so it ignores cancellation of the
// triggering ctx and is bounded by LoadTimeout instead.
func (p *Provider) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	p.once.Do(func() {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		p.load(loadCtx)
	})
	return p.Entries(), p.Err()
}

func (p *Provider) load(ctx context.Context) {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	var (
		entries []domain.CatalogEntry
		after   string
		loadErr error
	)
	for page := 0; page < MaxPages; page++ {
		res, err := p.remote.FetchProductsPaged(ctx, PageSize, after)
		if err != nil {
			loadErr = fmt.Errorf("load catalog page %d: %w", page+1, err)
			break
		}
		for _, prod := range res.Items {
			entries = append(entries, domain.CatalogEntryFromProduct(prod))
		}
		if !res.HasNextPage || res.EndCursor == "" {
			break
		}
		after = res.EndCursor
	}

	if loadErr != nil {
		p.logger.Warn("catalog load failed", zap.Int("entries", len(entries)), zap.Error(loadErr))
	} else {
		p.logger.Info("catalog loaded", zap.Int("entries", len(entries)))
	}

	p.mu.Lock()
	p.entries = entries
	p.err = loadErr
	p.loading = false
	p.loaded = true
	p.mu.Unlock()
}

// Entries returns a copy of the cached catalog.
func (p *Provider) Entries() []domain.CatalogEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.CatalogEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Loaded reports whether the single load has finished, successfully or not.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// Loading reports whether the load is in progress.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Err returns the load failure, if any.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}
