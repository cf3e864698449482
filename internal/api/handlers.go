// Package api exposes the autofill pipeline over HTTP for operators
// and for the batch submission UI.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/pipeline"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
)

// RunReader serves run lookups. audit.Store implements it.
type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*audit.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*audit.Run, error)
}

type Handlers struct {
	pipeline  *pipeline.Pipeline
	queue     queue.Queue
	runs      RunReader
	inspector form.Writer
	logger    *slog.Logger
}

func NewHandlers(p *pipeline.Pipeline, q queue.Queue, runs RunReader, inspector form.Writer, logger *slog.Logger) *Handlers {
	return &Handlers{
		pipeline:  p,
		queue:     q,
		runs:      runs,
		inspector: inspector,
		logger:    logger.With("component", "api"),
	}
}

// AutofillRequest identifies one product to extract and fill.
type AutofillRequest struct {
	ASIN string `json:"asin"`
	URL  string `json:"url"`
}

// AutofillResponse reports the outcome of a synchronous run.
type AutofillResponse struct {
	RunID string         `json:"run_id"`
	ASIN  string         `json:"asin"`
	Stats form.FillStats `json:"stats"`
	Error string         `json:"error,omitempty"`
}

// Autofill runs one product through the pipeline synchronously.
func (h *Handlers) Autofill(w http.ResponseWriter, r *http.Request) {
	var req AutofillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ASIN == "" && req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "either asin or url is required")
		return
	}

	result := h.pipeline.Process(r.Context(), queue.NewJob(req.ASIN, req.URL))

	resp := AutofillResponse{
		RunID: result.RunID.String(),
		ASIN:  result.ASIN,
		Stats: result.Stats,
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// BatchRequest enqueues several products for paced background
// processing.
type BatchRequest struct {
	Items []AutofillRequest `json:"items"`
}

type BatchResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

func (h *Handlers) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "items is required")
		return
	}

	var resp BatchResponse
	for _, item := range req.Items {
		if item.ASIN == "" && item.URL == "" {
			resp.Rejected++
			continue
		}
		if err := h.queue.Push(queue.NewJob(item.ASIN, item.URL)); err != nil {
			h.logger.Error("failed to enqueue job", "asin", item.ASIN, "error", err)
			resp.Rejected++
			continue
		}
		resp.Accepted++
	}

	h.respondJSON(w, http.StatusAccepted, resp)
}

// GetRun returns one run record.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

// ListRuns returns the most recent runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRuns(r.Context(), 100)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	h.respondJSON(w, http.StatusOK, runs)
}

// InspectForm enumerates the fillable fields on the destination form.
// Used when building a mapping rule file for a new form layout.
func (h *Handlers) InspectForm(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		h.respondError(w, http.StatusServiceUnavailable, "no form connected")
		return
	}

	fields, err := h.inspector.Inspect(r.Context())
	if err != nil {
		h.logger.Error("failed to inspect form", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to inspect form")
		return
	}

	h.respondJSON(w, http.StatusOK, fields)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
