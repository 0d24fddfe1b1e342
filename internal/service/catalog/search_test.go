package catalog

import (
	"context"
	"testing"

	"storefront/internal/domain"
)

func titles(entries []domain.CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRank_PrefixBeforeContains(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Title: "Silver Ring"},
		{Title: "Gold Band"},
		{Title: "Ring Holder"},
	}
	got := titles(Rank(entries, "  RING "))
	want := []string{"Ring Holder", "Silver Ring"}
	if !equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRank_MatchesHandleVendorAndTags(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Title: "Aurora", Tags: []string{"Opal"}},
		{Title: "Band", Vendor: "Opaline Studio"},
		{Title: "Drop", Handle: "opal-drop"},
		{Title: "Plain"},
		{Title: "Opal Stud"},
	}
	got := titles(Rank(entries, "opal"))
	want := []string{"Opal Stud", "Aurora", "Band", "Drop"}
	if !equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestRank_BlankQuery(t *testing.T) {
	if got := Rank([]domain.CatalogEntry{{Title: "x"}}, "   "); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestFilters(t *testing.T) {
	entries := []domain.CatalogEntry{
		{Title: "a", Vendor: "Atelier", Tags: []string{"Gold"}},
		{Title: "b", Vendor: "Other", Tags: []string{"silver"}},
	}
	if got := titles(FilterByVendor(entries, "atelier")); !equal(got, []string{"a"}) {
		t.Fatalf("vendor filter: %v", got)
	}
	if got := titles(FilterByTag(entries, "SILVER")); !equal(got, []string{"b"}) {
		t.Fatalf("tag filter: %v", got)
	}
	if got := FilterByTag(entries, ""); len(got) != 2 {
		t.Fatalf("blank tag should not filter")
	}
}

type stubSearch struct {
	page  domain.ProductPage
	err   error
	calls int
	query string
	limit int
}

func (s *stubSearch) SearchProducts(_ context.Context, query string, limit int, _ string) (domain.ProductPage, error) {
	s.calls++
	s.query = query
	s.limit = limit
	return s.page, s.err
}

func loadedProvider(t *testing.T, products ...domain.Product) *Provider {
	t.Helper()
	p := NewProvider(&stubPager{pages: []domain.ProductPage{{Items: products}}}, nil)
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func TestSearcher_LocalHit(t *testing.T) {
	remote := &stubSearch{}
	s := NewSearcher(loadedProvider(t, domain.Product{ID: "1", Title: "Ring Holder"}, domain.Product{ID: "2", Title: "Silver Ring"}), remote, nil)

	res, err := s.Search(context.Background(), "ring", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != SourceLocal || !equal(titles(res.Items), []string{"Ring Holder"}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if remote.calls != 0 {
		t.Fatalf("local hit must not call remote")
	}
}

func TestSearcher_FallsBackToRemote(t *testing.T) {
	remote := &stubSearch{page: domain.ProductPage{Items: []domain.Product{{ID: "9", Title: "Emerald Pendant"}}}}
	s := NewSearcher(loadedProvider(t, domain.Product{ID: "1", Title: "Ring"}), remote, nil)

	res, err := s.Search(context.Background(), " emerald ", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != SourceRemote || len(res.Items) != 1 || res.Items[0].ID != "9" {
		t.Fatalf("unexpected result %+v", res)
	}
	if remote.query != "emerald" || remote.limit != DefaultSearchLimit {
		t.Fatalf("unexpected remote args %q %d", remote.query, remote.limit)
	}
}

func TestSearcher_EmptyCatalogGoesRemote(t *testing.T) {
	remote := &stubSearch{}
	s := NewSearcher(NewProvider(&stubPager{}, nil), remote, nil)
	if _, err := s.Search(context.Background(), "ring", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if remote.calls != 1 {
		t.Fatalf("expected remote search")
	}
}

func TestSearcher_ColdProviderLoadsOnFirstSearch(t *testing.T) {
	remote := &stubSearch{}
	pager := &stubPager{pages: []domain.ProductPage{{Items: []domain.Product{{ID: "1", Title: "Opal Ring"}}}}}
	provider := NewProvider(pager, nil)
	s := NewSearcher(provider, remote, nil)

	res, err := s.Search(context.Background(), "opal", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Source != SourceLocal || len(res.Items) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !provider.Loaded() || pager.calls != 1 || remote.calls != 0 {
		t.Fatalf("loaded=%v pages=%d remote=%d", provider.Loaded(), pager.calls, remote.calls)
	}
}

func TestSearcher_BlankQuery(t *testing.T) {
	remote := &stubSearch{}
	s := NewSearcher(nil, remote, nil)
	res, err := s.Search(context.Background(), "", 5)
	if err != nil || len(res.Items) != 0 || remote.calls != 0 {
		t.Fatalf("blank query: %+v err=%v calls=%d", res, err, remote.calls)
	}
}
