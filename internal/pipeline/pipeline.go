// Package pipeline chains extraction, mapping and form filling into
// one run per product, and drains job queues across runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/extractor"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
	"github.com/hanwei-dev/listing-autofill/internal/ratelimit"
)

// ErrNoProductData means the page loaded but nothing usable could be
// extracted from it.
var ErrNoProductData = errors.New("no product data extracted")

// Source opens the product page for a job and hands back a queryable
// document.
type Source interface {
	Product(ctx context.Context, job *queue.Job) (page.Document, error)
}

// RunStore persists run lifecycle records. audit.Store implements it.
type RunStore interface {
	InsertRun(ctx context.Context, run *audit.Run) error
	CompleteRun(ctx context.Context, run *audit.Run) error
}

type nopRunStore struct{}

func (nopRunStore) InsertRun(context.Context, *audit.Run) error   { return nil }
func (nopRunStore) CompleteRun(context.Context, *audit.Run) error { return nil }

// Result is the outcome of one product run.
type Result struct {
	RunID  uuid.UUID
	ASIN   string
	Record *models.Record
	Stats  form.FillStats
	Err    error
}

type Pipeline struct {
	source    Source
	extractor *extractor.Extractor
	rules     *mapping.RuleSet
	projector *form.Projector
	runs      RunStore
	limiter   ratelimit.Limiter
	logger    *slog.Logger
}

type PipelineOption func(*Pipeline)

// WithRunStore persists run records through the given store.
func WithRunStore(runs RunStore) PipelineOption {
	return func(p *Pipeline) { p.runs = runs }
}

// WithLimiter paces page fetches during batch processing.
func WithLimiter(limiter ratelimit.Limiter) PipelineOption {
	return func(p *Pipeline) { p.limiter = limiter }
}

func New(source Source, ex *extractor.Extractor, rules *mapping.RuleSet, projector *form.Projector, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:    source,
		extractor: ex,
		rules:     rules,
		projector: projector,
		runs:      nopRunStore{},
		logger:    logger.With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one job end to end: open the page, extract the record,
// project it through the mapping rules and fill the destination form.
// Field-level failures are absorbed into the fill stats; only an
// unusable page or a record with no data fails the run.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) *Result {
	run := &audit.Run{
		ID:        uuid.New(),
		ASIN:      job.ASIN,
		URL:       job.URL,
		Status:    audit.RunStatusRunning,
		StartedAt: time.Now(),
	}
	result := &Result{RunID: run.ID, ASIN: job.ASIN}

	if err := p.runs.InsertRun(ctx, run); err != nil {
		p.logger.Warn("failed to persist run start", "run_id", run.ID, "error", err)
	}

	doc, err := p.source.Product(ctx, job)
	if err != nil {
		result.Err = fmt.Errorf("failed to open product page: %w", err)
		p.complete(ctx, run, result)
		return result
	}

	rec, err := p.extractor.Extract(ctx, doc, run.ID, job.ASIN)
	if err != nil {
		result.Err = fmt.Errorf("extraction failed: %w", err)
		p.complete(ctx, run, result)
		return result
	}
	result.Record = rec

	if !rec.HasData() {
		result.Err = fmt.Errorf("%w: %s", ErrNoProductData, job.ASIN)
		p.complete(ctx, run, result)
		return result
	}

	writes := p.rules.Project(rec)
	result.Stats = p.projector.Apply(ctx, run.ID, job.ASIN, writes)

	p.complete(ctx, run, result)
	return result
}

func (p *Pipeline) complete(ctx context.Context, run *audit.Run, result *Result) {
	now := time.Now()
	run.CompletedAt = &now
	run.Attempts = result.Stats.Attempts
	run.Filled = result.Stats.Filled
	run.Failed = result.Stats.Failed
	run.Skipped = result.Stats.Skipped

	if result.Err != nil {
		run.Status = audit.RunStatusFailed
		run.Error = result.Err.Error()
		p.logger.Error("run failed", "run_id", run.ID, "asin", run.ASIN, "error", result.Err)
	} else {
		run.Status = audit.RunStatusCompleted
		p.logger.Info("run completed",
			"run_id", run.ID,
			"asin", run.ASIN,
			"filled", run.Filled,
			"failed", run.Failed,
		)
	}

	if err := p.runs.CompleteRun(ctx, run); err != nil {
		p.logger.Warn("failed to persist run completion", "run_id", run.ID, "error", err)
	}
}

// Drain pops jobs until the queue closes or the context is cancelled,
// pacing page fetches through the limiter when one is configured. It
// returns the results in processing order.
func (p *Pipeline) Drain(ctx context.Context, q queue.Queue) ([]*Result, error) {
	var results []*Result
	for {
		job, err := q.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, queue.ErrQueueEmpty) {
				return results, nil
			}
			return results, err
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return results, err
			}
		}

		results = append(results, p.Process(ctx, job))
	}
}
