// Package form writes projected values into the destination listing
// form. The Writer boundary hides the browser so the projector can be
// tested without one.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
)

var (
	// ErrFieldNotFound means no form container carries the target key.
	ErrFieldNotFound = errors.New("form field not found")
	// ErrUnsupportedWidget means the container exists but holds no
	// widget the writer knows how to fill.
	ErrUnsupportedWidget = errors.New("unsupported widget type")
	// ErrOptionNotFound means a dropdown had no option matching the
	// value, not even partially.
	ErrOptionNotFound = errors.New("no matching dropdown option")
)

// WidgetKind classifies the input element inside a form field
// container.
type WidgetKind string

const (
	WidgetTextarea  WidgetKind = "textarea"
	WidgetSelect    WidgetKind = "select"
	WidgetTextInput WidgetKind = "text_input"
	WidgetRichText  WidgetKind = "rich_text"
	WidgetUnknown   WidgetKind = "unknown"
)

// Field describes one fillable field discovered on the form.
type Field struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Widget   WidgetKind `json:"widget"`
	Required bool       `json:"required"`
}

// Writer fills one destination field identified by its attribute key.
type Writer interface {
	Fill(ctx context.Context, target, value string) error
	// Inspect enumerates the fillable fields currently on the form.
	Inspect(ctx context.Context) ([]Field, error)
}

// FillStats counts write outcomes for one form-filling pass.
type FillStats struct {
	Attempts int `json:"attempts"`
	Filled   int `json:"filled"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Projector pushes mapping writes through a Writer. One failing field
// never stops the pass; failures are counted and audited instead.
type Projector struct {
	writer Writer
	logger *slog.Logger
	audit  audit.Sink
}

func NewProjector(writer Writer, logger *slog.Logger, sink audit.Sink) *Projector {
	if sink == nil {
		sink = audit.Nop()
	}
	return &Projector{
		writer: writer,
		logger: logger.With("component", "form"),
		audit:  sink,
	}
}

// ApplyAvailable inspects the form first and skips writes whose target
// field is not present, so a rule file shared across form layouts does
// not burn failures on fields a layout lacks.
func (p *Projector) ApplyAvailable(ctx context.Context, runID uuid.UUID, asin string, writes []mapping.Write) (FillStats, error) {
	fields, err := p.writer.Inspect(ctx)
	if err != nil {
		return FillStats{}, fmt.Errorf("failed to inspect form: %w", err)
	}
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.Key] = true
	}

	var stats FillStats
	kept := make([]mapping.Write, 0, len(writes))
	for _, w := range writes {
		if !present[w.Target] {
			stats.Skipped++
			p.audit.Record(ctx, audit.Event{
				RunID: runID, ASIN: asin,
				Stage: "form", Strategy: w.Target,
				Outcome: audit.OutcomeSkipped, Reason: "field not on form",
			})
			continue
		}
		kept = append(kept, w)
	}

	applied := p.Apply(ctx, runID, asin, kept)
	applied.Skipped += stats.Skipped
	return applied, nil
}

// Apply performs the writes in order and returns the pass statistics.
// Writes with empty values are skipped, not attempted.
func (p *Projector) Apply(ctx context.Context, runID uuid.UUID, asin string, writes []mapping.Write) FillStats {
	var stats FillStats
	for _, w := range writes {
		if w.Value == "" {
			stats.Skipped++
			p.audit.Record(ctx, audit.Event{
				RunID: runID, ASIN: asin,
				Stage: "form", Strategy: w.Target,
				Outcome: audit.OutcomeSkipped, Reason: "empty value",
			})
			continue
		}
		stats.Attempts++
		if err := p.writer.Fill(ctx, w.Target, w.Value); err != nil {
			stats.Failed++
			p.logger.Warn("form field fill failed", "target", w.Target, "error", err)
			p.audit.Record(ctx, audit.Event{
				RunID: runID, ASIN: asin,
				Stage: "form", Strategy: w.Target,
				Outcome: audit.OutcomeFailed, Value: w.Value, Reason: err.Error(),
			})
			continue
		}
		stats.Filled++
		p.audit.Record(ctx, audit.Event{
			RunID: runID, ASIN: asin,
			Stage: "form", Strategy: w.Target,
			Outcome: audit.OutcomeOK, Value: w.Value,
		})
	}
	p.logger.Info("form pass finished",
		"asin", asin,
		"attempts", stats.Attempts,
		"filled", stats.Filled,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats
}
