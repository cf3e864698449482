// Package extractor populates a canonical product record from one
// Amazon product page snapshot. Every field has its own ordered list of
// fallback strategies; a single field failing never aborts the rest.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/units"
)

// ErrPageUnavailable indicates the page could not be interacted with at
// all. It is the only error Extract returns; everything else degrades
// to absent fields.
var ErrPageUnavailable = errors.New("product page unavailable")

// DefaultWeightPounds is used when no weight can be found anywhere on
// the page. Downstream shipping-cost logic requires a numeric weight.
const DefaultWeightPounds = 10.0

type selectors struct {
	title          string
	byline         string
	bylineFallback string
	tableTop       string
	tableBottom    string
	glanceIcons    string
	featureBullets string
	techSpec       string
	description    string
}

// Extractor scrapes product records from page documents.
type Extractor struct {
	sel           selectors
	logger        *slog.Logger
	audit         audit.Sink
	metric        bool // emit dimensions in centimeters
	defaultWeight float64
}

type Option func(*Extractor)

// WithMetricDimensions makes the extractor convert parsed dimensions to
// centimeters, for destination schemas that require metric values.
func WithMetricDimensions() Option {
	return func(e *Extractor) { e.metric = true }
}

// WithDefaultWeight overrides the fallback weight in pounds.
func WithDefaultWeight(pounds float64) Option {
	return func(e *Extractor) { e.defaultWeight = pounds }
}

func WithAuditSink(sink audit.Sink) Option {
	return func(e *Extractor) { e.audit = sink }
}

func New(logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		sel: selectors{
			title:          "#productTitle",
			byline:         "#bylineInfo",
			bylineFallback: "span.a-size-base.po-break-word",
			tableTop:       "table.a-normal.a-spacing-micro",
			tableBottom:    "table.a-keyvalue.prodDetTable",
			glanceIcons:    "#glance_icons_div",
			featureBullets: "#feature-bullets ul.a-unordered-list li span.a-list-item",
			techSpec:       "#productDetails_techSpec_section_1, #productDetails_detailBullets_sections1",
			description:    "#productDescription",
		},
		logger:        logger.With("component", "extractor"),
		audit:         audit.Nop(),
		defaultWeight: DefaultWeightPounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a product record from the given document. The record
// is always returned, even when every field failed; callers check
// HasData. Only an unusable page yields an error.
func (e *Extractor) Extract(ctx context.Context, doc page.Document, runID uuid.UUID, asin string) (*models.Record, error) {
	if doc == nil {
		return nil, ErrPageUnavailable
	}

	rec := models.NewRecord(asin)

	e.extractTitle(doc, rec)
	e.extractBrand(doc, rec)
	e.extractDetailTables(ctx, doc, rec, runID)
	e.extractVariants(ctx, doc, rec, runID)
	e.extractFeatures(doc, rec)
	e.extractPrice(ctx, doc, rec, runID)
	e.extractWeight(ctx, doc, rec, runID)
	e.extractDimensions(ctx, rec, runID)

	if rec.Title != "" {
		rec.Details.Set("Title", rec.Title)
	}
	if rec.ASIN != "" {
		rec.Details.Set("ASIN", rec.ASIN)
	}

	e.logger.Info("extraction finished",
		"asin", asin,
		"title", rec.Title != "",
		"price", rec.Price != nil,
		"dimensions", rec.Dimensions != nil,
		"details", rec.Details.Len(),
		"features", len(rec.Features),
	)

	return rec, nil
}

func (e *Extractor) extractTitle(doc page.Document, rec *models.Record) {
	if el, ok := doc.First(e.sel.title); ok {
		rec.Title = el.Text()
	}
}

func (e *Extractor) extractBrand(doc page.Document, rec *models.Record) {
	if el, ok := doc.First(e.sel.byline); ok {
		rec.Brand = cleanByline(el.Text())
	}
	if rec.Brand == "" {
		if el, ok := doc.First(e.sel.bylineFallback); ok {
			rec.Brand = cleanByline(el.Text())
		}
	}
	if rec.Brand != "" {
		rec.Details.Set("Brand", rec.Brand)
	}
}

func cleanByline(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "Visit the ")
	text = strings.TrimPrefix(text, "Brand: ")
	text = strings.TrimSuffix(text, " Store")
	return strings.TrimSpace(text)
}

func (e *Extractor) extractFeatures(doc page.Document, rec *models.Record) {
	for _, el := range doc.All(e.sel.featureBullets) {
		text := el.Text()
		if len(text) < 10 {
			continue
		}
		if strings.Contains(text, "See more product details") {
			continue
		}
		rec.Features = append(rec.Features, text)
	}
}

func (e *Extractor) record(ctx context.Context, runID uuid.UUID, asin, stage, strategy string, outcome audit.Outcome, value, reason string) {
	e.audit.Record(ctx, audit.Event{
		RunID:    runID,
		ASIN:     asin,
		Stage:    stage,
		Strategy: strategy,
		Outcome:  outcome,
		Value:    value,
		Reason:   reason,
	})
}

// inchesOrMetric applies the destination-schema unit policy.
func (e *Extractor) inchesOrMetric(d *models.Dimensions) *models.Dimensions {
	if e.metric {
		return units.ToCentimeters(d)
	}
	return d
}
