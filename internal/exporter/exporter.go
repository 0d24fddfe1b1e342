package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"storefront/internal/domain"
)

// Header is the column layout written by Run.
var Header = []string{"id", "handle", "title", "vendor", "price", "currency", "tags", "image"}

// CatalogSource yields the catalog. A load error may come with the entries
// that arrived before it.
type CatalogSource interface {
	Load(ctx context.Context) ([]domain.CatalogEntry, error)
}

// CSVExporter writes catalog entries as CSV rows.
type CSVExporter struct {
	writer *csv.Writer
	source CatalogSource
	// Partial keeps the rows loaded before a source failure instead of
	// failing the export.
	Partial bool
}

func NewCSVExporter(w io.Writer, source CatalogSource) *CSVExporter {
	return &CSVExporter{writer: csv.NewWriter(w), source: source}
}

// Run loads the catalog and writes one row per entry, returning the row count.
func (e *CSVExporter) Run(ctx context.Context) (int, error) {
	entries, loadErr := e.source.Load(ctx)
	if loadErr != nil && !e.Partial {
		return 0, fmt.Errorf("load catalog: %w", loadErr)
	}

	if err := e.writer.Write(Header); err != nil {
		return 0, fmt.Errorf("write headers: %w", err)
	}
	written := 0
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		if err := e.writer.Write(toRecord(entry)); err != nil {
			return written, fmt.Errorf("write row %q: %w", entry.ID, err)
		}
		written++
	}
	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return written, fmt.Errorf("flush: %w", err)
	}
	if loadErr != nil {
		return written, fmt.Errorf("partial export: %w", loadErr)
	}
	return written, nil
}

func toRecord(e domain.CatalogEntry) []string {
	return []string{
		e.ID,
		e.Handle,
		strings.TrimSpace(e.Title),
		e.Vendor,
		e.Price.Amount.StringFixed(2),
		e.Price.CurrencyCode,
		strings.Join(e.Tags, ";"),
		e.ImageURL,
	}
}
