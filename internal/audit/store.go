package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run is one product's trip through the pipeline.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	ASIN        string     `json:"asin"`
	URL         string     `json:"url"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	Filled      int        `json:"filled"`
	Failed      int        `json:"failed"`
	Skipped     int        `json:"skipped"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Store persists runs and audit events, and feeds the outbox so the
// relay can publish events downstream.
type Store struct {
	db     *DB
	outbox *OutboxRepository
	logger *slog.Logger
}

func NewStore(db *DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		outbox: NewOutboxRepository(db),
		logger: logger.With("component", "audit_store"),
	}
}

// Migrate creates the audit tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS autofill_run (
			id UUID PRIMARY KEY,
			asin TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			filled INT NOT NULL DEFAULT 0,
			failed INT NOT NULL DEFAULT 0,
			skipped INT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS audit_event (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			asin TEXT NOT NULL,
			stage TEXT NOT NULL,
			strategy TEXT NOT NULL,
			outcome TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_event_run ON audit_event (run_id, at)`,
		`CREATE TABLE IF NOT EXISTS outbox_event (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			target_stream TEXT NOT NULL,
			status TEXT NOT NULL,
			retry_count INT NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ,
			next_retry_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_event (status, next_retry_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO autofill_run (id, asin, url, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.ASIN, run.URL, run.Status, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (s *Store) CompleteRun(ctx context.Context, run *Run) error {
	now := time.Now()
	run.CompletedAt = &now

	_, err := s.db.Exec(ctx, `
		UPDATE autofill_run
		SET status = $1, attempts = $2, filled = $3, failed = $4,
			skipped = $5, completed_at = $6, error = $7
		WHERE id = $8`,
		run.Status, run.Attempts, run.Filled, run.Failed,
		run.Skipped, run.CompletedAt, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	run := &Run{}
	err := s.db.QueryRow(ctx, `
		SELECT id, asin, url, status, attempts, filled, failed, skipped,
			started_at, completed_at, error
		FROM autofill_run WHERE id = $1`, id).Scan(
		&run.ID, &run.ASIN, &run.URL, &run.Status, &run.Attempts,
		&run.Filled, &run.Failed, &run.Skipped,
		&run.StartedAt, &run.CompletedAt, &run.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, asin, url, status, attempts, filled, failed, skipped,
			started_at, completed_at, error
		FROM autofill_run ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID, &run.ASIN, &run.URL, &run.Status, &run.Attempts,
			&run.Filled, &run.Failed, &run.Skipped,
			&run.StartedAt, &run.CompletedAt, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Record implements Sink. Events are written with the outbox entry in
// one transaction so the relay never publishes an event that was not
// persisted.
func (s *Store) Record(ctx context.Context, ev Event) {
	ev = Stamp(ev)

	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to marshal audit event", "error", err)
		return
	}

	err = s.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO audit_event (id, run_id, asin, stage, strategy, outcome, value, reason, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			ev.ID, ev.RunID, ev.ASIN, ev.Stage, ev.Strategy,
			ev.Outcome, ev.Value, ev.Reason, ev.At); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}

		return s.outbox.InsertWithTx(ctx, tx, &OutboxEvent{
			AggregateType: "autofill_run",
			AggregateID:   ev.RunID.String(),
			EventType:     "AUDIT_" + string(ev.Outcome),
			Payload:       payload,
		})
	})
	if err != nil {
		// audit failures do not propagate into the pipeline
		s.logger.Error("failed to record audit event",
			"error", err, "stage", ev.Stage, "strategy", ev.Strategy)
	}
}
