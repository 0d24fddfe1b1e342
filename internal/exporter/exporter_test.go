package exporter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type stubSource struct {
	entries []domain.CatalogEntry
	err     error
}

func (s stubSource) Load(context.Context) ([]domain.CatalogEntry, error) {
	return s.entries, s.err
}

func entries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{
			ID:       "gid://shopify/Product/1",
			Handle:   "opal-ring",
			Title:    "Opal Ring",
			Vendor:   "Atelier",
			Price:    domain.Money{Amount: decimal.RequireFromString("129.5"), CurrencyCode: "USD"},
			Tags:     []string{"ring", "opal"},
			ImageURL: "https://cdn.example/opal.jpg",
		},
		{ID: ""},
		{
			ID:     "gid://shopify/Product/2",
			Handle: "chain",
			Title:  "Chain, gold",
			Price:  domain.Money{Amount: decimal.NewFromInt(80), CurrencyCode: "USD"},
		},
	}
}

func TestCSVExporter_Run(t *testing.T) {
	var buf bytes.Buffer
	count, err := NewCSVExporter(&buf, stubSource{entries: entries()}).Run(context.Background())
	if err != nil {
		t.Fatalf("export run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	want := strings.Join([]string{
		"id,handle,title,vendor,price,currency,tags,image",
		"gid://shopify/Product/1,opal-ring,Opal Ring,Atelier,129.50,USD,ring;opal,https://cdn.example/opal.jpg",
		`gid://shopify/Product/2,chain,"Chain, gold",,80.00,USD,,`,
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestCSVExporter_SourceFailure(t *testing.T) {
	src := stubSource{entries: entries()[:1], err: domain.ErrRemoteUnavailable}

	var buf bytes.Buffer
	if _, err := NewCSVExporter(&buf, src).Run(context.Background()); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}

	exp := NewCSVExporter(&buf, src)
	exp.Partial = true
	count, err := exp.Run(context.Background())
	if !errors.Is(err, domain.ErrRemoteUnavailable) || count != 1 {
		t.Fatalf("partial export: count=%d err=%v", count, err)
	}
	if !strings.Contains(buf.String(), "opal-ring") {
		t.Fatalf("expected partial rows, got %q", buf.String())
	}
}
