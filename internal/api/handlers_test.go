package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/extractor"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/pipeline"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
)

type snapshotSource struct{ html string }

func (s *snapshotSource) Product(context.Context, *queue.Job) (page.Document, error) {
	return page.NewSnapshot(s.html)
}

type mapWriter struct{ filled map[string]string }

func (m *mapWriter) Fill(_ context.Context, target, value string) error {
	if m.filled == nil {
		m.filled = make(map[string]string)
	}
	m.filled[target] = value
	return nil
}

func (m *mapWriter) Inspect(context.Context) ([]form.Field, error) {
	return []form.Field{
		{Key: "productName", Label: "Product Name", Widget: form.WidgetTextInput, Required: true},
	}, nil
}

type stubRunReader struct {
	run *audit.Run
	err error
}

func (s *stubRunReader) GetRun(context.Context, uuid.UUID) (*audit.Run, error) {
	return s.run, s.err
}

func (s *stubRunReader) ListRuns(context.Context, int) ([]*audit.Run, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*audit.Run{s.run}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T, runs RunReader) (*Handlers, *mapWriter, queue.Queue) {
	t.Helper()
	logger := testLogger()
	rules, err := mapping.NewRuleSet([]mapping.Rule{
		{Target: "productName", Kind: mapping.KindDirect, Source: "title"},
	})
	require.NoError(t, err)

	writer := &mapWriter{}
	source := &snapshotSource{html: `<html><body><span id="productTitle">Acme Desk</span></body></html>`}
	p := pipeline.New(source, extractor.New(logger), rules, form.NewProjector(writer, logger, nil), logger)
	q := queue.NewInMemoryQueue()
	t.Cleanup(func() { q.Close() })

	return NewHandlers(p, q, runs, writer, logger), writer, q
}

func router(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/autofill", h.Autofill)
	r.Post("/api/v1/autofill/batch", h.CreateBatch)
	r.Get("/api/v1/runs/{runID}", h.GetRun)
	r.Get("/api/v1/runs", h.ListRuns)
	r.Get("/api/v1/form/fields", h.InspectForm)
	return r
}

func TestAutofillEndpoint(t *testing.T) {
	h, writer, _ := newTestHandlers(t, &stubRunReader{})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/autofill", "application/json",
		strings.NewReader(`{"asin": "B0TEST0001"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body AutofillResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Error)
	assert.Equal(t, 1, body.Stats.Filled)
	assert.Equal(t, "Acme Desk", writer.filled["productName"])
}

func TestAutofillRejectsEmptyRequest(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunReader{})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/autofill", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBatchEnqueuesJobs(t *testing.T) {
	h, _, q := newTestHandlers(t, &stubRunReader{})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/autofill/batch", "application/json",
		strings.NewReader(`{"items": [{"asin": "B0TEST0001"}, {"asin": ""}, {"url": "https://www.amazon.com/dp/B0TEST0002"}]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Accepted)
	assert.Equal(t, 1, body.Rejected)
	assert.Equal(t, 2, q.Size())
}

func TestGetRunNotFound(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunReader{err: errors.New("no rows")})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/runs/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRunInvalidID(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunReader{})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/runs/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInspectFormEndpoint(t *testing.T) {
	h, _, _ := newTestHandlers(t, &stubRunReader{})
	srv := httptest.NewServer(router(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/form/fields")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fields []form.Field
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	require.Len(t, fields, 1)
	assert.Equal(t, "productName", fields[0].Key)
	assert.True(t, fields[0].Required)
}
