package extractor

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/units"
)

// dimensionDetailLabels are the detail-row names Amazon uses for the
// product size, ordered by preference. Package dimensions describe the
// box, not the product, and come last.
var dimensionDetailLabels = []string{
	"Product Dimensions",
	"Item Dimensions D x W x H",
	"Item Dimensions LxWxH",
	"Package Dimensions",
}

func (e *Extractor) extractDimensions(ctx context.Context, rec *models.Record, runID uuid.UUID) {
	for _, label := range dimensionDetailLabels {
		raw, ok := rec.Details.Get(label)
		if !ok {
			continue
		}
		dims, err := units.Dimensions(raw)
		if err != nil {
			outcome := audit.OutcomeUnparseable
			if errors.Is(err, units.ErrNotFound) {
				outcome = audit.OutcomeNotFound
			}
			e.record(ctx, runID, rec.ASIN, "dimensions", label, outcome, raw, err.Error())
			continue
		}
		e.record(ctx, runID, rec.ASIN, "dimensions", label, audit.OutcomeOK, raw, "")
		rec.Dimensions = e.inchesOrMetric(dims)
		return
	}
	e.record(ctx, runID, rec.ASIN, "dimensions", "detail_label", audit.OutcomeNotFound, "", "no dimension detail row")
}
