package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/units"
)

const (
	strategyDetailLabel = "detail_label"
	strategyTechSpec    = "tech_spec_table"
	strategyFeatureScan = "feature_bullets"
	strategyDescription = "product_description"
	strategyPageScan    = "page_scan"
	strategyDefault     = "default"
)

// weightDetailLabels is ordered by specificity. "Shipping Weight" comes
// last because it includes packaging.
var weightDetailLabels = []string{"Item Weight", "Weight", "Package Weight", "Shipping Weight"}

// extractWeight tries progressively coarser sources and falls back to
// the configured default. A record never leaves without a weight.
func (e *Extractor) extractWeight(ctx context.Context, doc page.Document, rec *models.Record, runID uuid.UUID) {
	if w := e.weightFromDetails(ctx, rec, runID); w != nil {
		rec.Weight = w
		return
	}
	for _, attempt := range []struct {
		strategy string
		text     func() string
	}{
		{strategyTechSpec, func() string { return sectionText(doc, e.sel.techSpec) }},
		{strategyFeatureScan, func() string { return joinFeatures(rec.Features) }},
		{strategyDescription, func() string { return sectionText(doc, e.sel.description) }},
		{strategyPageScan, doc.Text},
	} {
		text := attempt.text()
		if text == "" {
			e.record(ctx, runID, rec.ASIN, "weight", attempt.strategy, audit.OutcomeNotFound, "", "section empty")
			continue
		}
		w, err := units.Weight(text)
		if err != nil {
			e.record(ctx, runID, rec.ASIN, "weight", attempt.strategy, audit.OutcomeNotFound, "", "no weight expression")
			continue
		}
		e.record(ctx, runID, rec.ASIN, "weight", attempt.strategy, audit.OutcomeOK, fmt.Sprintf("%.4f lb", w.Amount), "")
		rec.Weight = w
		return
	}

	rec.Weight = &models.Weight{Amount: e.defaultWeight, Unit: models.WeightUnitPound}
	e.record(ctx, runID, rec.ASIN, "weight", strategyDefault, audit.OutcomeDefaulted,
		fmt.Sprintf("%.2f lb", e.defaultWeight), "all strategies exhausted")
	e.logger.Warn("weight defaulted", "asin", rec.ASIN, "pounds", e.defaultWeight)
}

func (e *Extractor) weightFromDetails(ctx context.Context, rec *models.Record, runID uuid.UUID) *models.Weight {
	for _, label := range weightDetailLabels {
		raw, ok := rec.Details.Get(label)
		if !ok {
			continue
		}
		w, err := units.Weight(raw)
		if err != nil {
			e.record(ctx, runID, rec.ASIN, "weight", strategyDetailLabel, audit.OutcomeUnparseable, raw, err.Error())
			continue
		}
		e.record(ctx, runID, rec.ASIN, "weight", strategyDetailLabel, audit.OutcomeOK, raw, label)
		return w
	}
	e.record(ctx, runID, rec.ASIN, "weight", strategyDetailLabel, audit.OutcomeNotFound, "", "no weight detail row")
	return nil
}

func sectionText(doc page.Document, sel string) string {
	el, ok := doc.First(sel)
	if !ok {
		return ""
	}
	return el.Text()
}

func joinFeatures(features []string) string {
	return strings.Join(features, "\n")
}
