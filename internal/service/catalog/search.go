package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// Rank orders entries for query: titles starting with the query first, then
// entries whose title, handle, vendor or tags contain it. Non-matching entries
// are dropped and catalog order is kept within each group. A blank query
// matches nothing.
func Rank(entries []domain.CatalogEntry, query string) []domain.CatalogEntry {
	q := normalize(query)
	if q == "" {
		return []domain.CatalogEntry{}
	}
	var prefix, contains []domain.CatalogEntry
	for _, e := range entries {
		title := normalize(e.Title)
		switch {
		case strings.HasPrefix(title, q):
			prefix = append(prefix, e)
		case strings.Contains(haystack(e), q):
			contains = append(contains, e)
		}
	}
	out := make([]domain.CatalogEntry, 0, len(prefix)+len(contains))
	out = append(out, prefix...)
	return append(out, contains...)
}

func haystack(e domain.CatalogEntry) string {
	parts := []string{e.Title, e.Handle, e.Vendor, strings.Join(e.Tags, " ")}
	return normalize(strings.Join(parts, " "))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FilterByVendor keeps entries whose vendor equals vendor, ignoring case.
func FilterByVendor(entries []domain.CatalogEntry, vendor string) []domain.CatalogEntry {
	v := normalize(vendor)
	if v == "" {
		return entries
	}
	out := make([]domain.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if normalize(e.Vendor) == v {
			out = append(out, e)
		}
	}
	return out
}

// FilterByTag keeps entries carrying tag, ignoring case.
func FilterByTag(entries []domain.CatalogEntry, tag string) []domain.CatalogEntry {
	t := normalize(tag)
	if t == "" {
		return entries
	}
	out := make([]domain.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		for _, et := range e.Tags {
			if normalize(et) == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Source says where search results came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// SearchResult is a ranked result list.
type SearchResult struct {
	Items  []domain.CatalogEntry `json:"items"`
	Source Source                `json:"source"`
}

type remoteSearcher interface {
	SearchProducts(ctx context.Context, query string, limit int, cursor string) (domain.ProductPage, error)
}

// Searcher ranks the cached catalog, loading it on first use, and falls back
// to remote search when the local ranking is empty.
type Searcher struct {
	provider *Provider
	remote   remoteSearcher
	logger   *zap.Logger
}

func NewSearcher(provider *Provider, remote remoteSearcher, logger *zap.Logger) *Searcher {
	return &Searcher{provider: provider, remote: remote, logger: logging.OrNop(logger).Named("search")}
}

// DefaultSearchLimit applies when Search is called with limit <= 0.
const DefaultSearchLimit = 20

func (s *Searcher) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if normalize(query) == "" {
		return SearchResult{Items: []domain.CatalogEntry{}, Source: SourceLocal}, nil
	}

	if s.provider != nil {
		// First search on a cold process loads the catalog; later calls hit the latch.
		entries, _ := s.provider.Load(ctx)
		if ranked := Rank(entries, query); len(ranked) > 0 {
			if len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return SearchResult{Items: ranked, Source: SourceLocal}, nil
		}
	}

	page, err := s.remote.SearchProducts(ctx, strings.TrimSpace(query), limit, "")
	if err != nil {
		s.logger.Warn("remote search failed", zap.String("query", query), zap.Error(err))
		return SearchResult{}, err
	}
	items := make([]domain.CatalogEntry, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, domain.CatalogEntryFromProduct(p))
	}
	return SearchResult{Items: items, Source: SourceRemote}, nil
}
