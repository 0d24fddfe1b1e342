package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func TestMemory_CartRefRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewMemory(nil)

	if _, ok := a.LoadCartRef(ctx, "s1"); ok {
		t.Fatalf("expected no cart ref")
	}
	ref := domain.CartRef{ID: "cart-1", CheckoutURL: "https://co/1"}
	if err := a.SaveCartRef(ctx, "s1", ref); err != nil {
		t.Fatalf("SaveCartRef: %v", err)
	}
	got, ok := a.LoadCartRef(ctx, "s1")
	if !ok || got != ref {
		t.Fatalf("unexpected ref %+v ok=%v", got, ok)
	}
	if _, ok := a.LoadCartRef(ctx, "s2"); ok {
		t.Fatalf("sessions must not share records")
	}
	if err := a.ClearCartRef(ctx, "s1"); err != nil {
		t.Fatalf("ClearCartRef: %v", err)
	}
	if _, ok := a.LoadCartRef(ctx, "s1"); ok {
		t.Fatalf("expected cleared ref")
	}
}

func TestMemory_FavoritesCorruptJSON(t *testing.T) {
	a := NewMemory(nil)
	a.PutRaw("s1", "favorites", []byte(`[{"productId": "p1",`))

	favs := a.LoadFavorites(context.Background(), "s1")
	if favs == nil || len(favs) != 0 {
		t.Fatalf("expected empty favorites, got %#v", favs)
	}
}

func TestMemory_FavoritesWrongShape(t *testing.T) {
	a := NewMemory(nil)
	a.PutRaw("s1", "favorites", []byte(`{"productId":"p1"}`))
	if favs := a.LoadFavorites(context.Background(), "s1"); len(favs) != 0 {
		t.Fatalf("expected empty favorites, got %#v", favs)
	}
}

func TestMemory_FavoritesDropsEntriesWithoutProduct(t *testing.T) {
	ctx := context.Background()
	a := NewMemory(nil)
	in := []domain.FavoriteEntry{
		{ProductID: "p1", Title: "Ring", Price: decimal.RequireFromString("99.5"), Currency: "USD"},
		{Title: "orphan"},
	}
	if err := a.SaveFavorites(ctx, "s1", in); err != nil {
		t.Fatalf("SaveFavorites: %v", err)
	}
	got := a.LoadFavorites(ctx, "s1")
	if len(got) != 1 || got[0].ProductID != "p1" || !got[0].Price.Equal(decimal.RequireFromString("99.5")) {
		t.Fatalf("unexpected favorites %+v", got)
	}
}

func TestMemory_CartRefCorrupt(t *testing.T) {
	a := NewMemory(nil)
	a.PutRaw("s1", "cart", []byte(`not json`))
	if _, ok := a.LoadCartRef(context.Background(), "s1"); ok {
		t.Fatalf("corrupt cart ref must read as absent")
	}
}

func TestMemory_PopupPrefs(t *testing.T) {
	ctx := context.Background()
	a := NewMemory(nil)
	if got := a.LoadPopupPrefs(ctx, "s1"); got != (domain.PopupPrefs{}) {
		t.Fatalf("expected zero prefs, got %+v", got)
	}
	shown := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := a.SavePopupPrefs(ctx, "s1", domain.PopupPrefs{DismissCount: 2, LastShownAt: shown}); err != nil {
		t.Fatalf("SavePopupPrefs: %v", err)
	}
	got := a.LoadPopupPrefs(ctx, "s1")
	if got.DismissCount != 2 || !got.LastShownAt.Equal(shown) {
		t.Fatalf("unexpected prefs %+v", got)
	}

	a.PutRaw("s1", "popup", []byte(`{"dismissCount": -4}`))
	if got := a.LoadPopupPrefs(ctx, "s1"); got.DismissCount != 0 {
		t.Fatalf("negative dismiss count must clamp to 0, got %d", got.DismissCount)
	}
}
