// Package audit records one discrete event per extraction-strategy
// attempt and per form-write attempt. Sinks decide persistence; the
// pipeline only emits.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeUnparseable Outcome = "unparseable"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFailed      Outcome = "failed"
	OutcomeDefaulted   Outcome = "defaulted"
)

// Event is one extraction or form-write attempt.
type Event struct {
	ID       uuid.UUID `json:"id"`
	RunID    uuid.UUID `json:"run_id"`
	ASIN     string    `json:"asin"`
	Stage    string    `json:"stage"`
	Strategy string    `json:"strategy"`
	Outcome  Outcome   `json:"outcome"`
	Value    string    `json:"value,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Stamp fills in event metadata that callers usually leave zero.
func Stamp(ev Event) Event {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return ev
}

// LogSink writes events to structured logs.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "audit")}
}

func (s *LogSink) Record(_ context.Context, ev Event) {
	ev = Stamp(ev)
	s.logger.Info("audit event",
		"run_id", ev.RunID,
		"asin", ev.ASIN,
		"stage", ev.Stage,
		"strategy", ev.Strategy,
		"outcome", ev.Outcome,
		"value", ev.Value,
		"reason", ev.Reason,
	)
}

// MultiSink fans one event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, ev Event) {
	ev = Stamp(ev)
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) {}

// Nop returns a sink that drops everything. Used by tests that do not
// assert on the audit trail.
func Nop() Sink {
	return nopSink{}
}
