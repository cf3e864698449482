package extractor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
)

// extractDetailTables merges the overview table, the extended
// information table and the glance-icons strip into the detail map.
// The first occurrence of a key wins; later duplicates are dropped.
func (e *Extractor) extractDetailTables(ctx context.Context, doc page.Document, rec *models.Record, runID uuid.UUID) {
	before := rec.Details.Len()

	e.detailsFromRows(doc, e.sel.tableTop+" tr", rec)
	e.detailsFromRows(doc, e.sel.tableBottom+" tr", rec)
	e.detailsFromGlanceIcons(doc, rec)

	if m, ok := rec.Details.Get("Manufacturer"); ok {
		rec.Manufacturer = m
	}
	if rec.Brand == "" {
		if b, ok := rec.Details.Get("Brand"); ok {
			rec.Brand = b
		}
	}

	added := rec.Details.Len() - before
	if added == 0 {
		e.record(ctx, runID, rec.ASIN, "details", "tables", audit.OutcomeNotFound, "", "no detail rows")
		return
	}
	e.record(ctx, runID, rec.ASIN, "details", "tables", audit.OutcomeOK, "", "")
	e.logger.Debug("details extracted", "asin", rec.ASIN, "count", added)
}

func (e *Extractor) detailsFromRows(doc page.Document, sel string, rec *models.Record) {
	for _, row := range doc.All(sel) {
		cells := row.All("th, td")
		if len(cells) < 2 {
			continue
		}
		key := cells[0].Text()
		value := cells[1].Text()
		if key == "" || value == "" {
			continue
		}
		if !rec.Details.Set(key, value) {
			e.logger.Debug("duplicate detail ignored", "asin", rec.ASIN, "key", key)
		}
	}
}

// detailsFromGlanceIcons reads the icon strip under the byline. Each
// cell holds a bold label span followed by value spans.
func (e *Extractor) detailsFromGlanceIcons(doc page.Document, rec *models.Record) {
	for _, cell := range doc.All(e.sel.glanceIcons + " td") {
		label, ok := cell.First("span.a-text-bold")
		if !ok {
			continue
		}
		key := strings.TrimSuffix(strings.TrimSpace(label.Text()), ":")
		value := ""
		for _, span := range cell.All("span") {
			class, _ := span.Attr("class")
			if strings.Contains(class, "a-text-bold") {
				continue
			}
			if text := span.Text(); text != "" {
				value = text
				break
			}
		}
		if key == "" || value == "" {
			continue
		}
		if !rec.Details.Set(key, value) {
			e.logger.Debug("duplicate detail ignored", "asin", rec.ASIN, "key", key)
		}
	}
}
