package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanwei-dev/listing-autofill/internal/audit"
	"github.com/hanwei-dev/listing-autofill/internal/extractor"
	"github.com/hanwei-dev/listing-autofill/internal/form"
	"github.com/hanwei-dev/listing-autofill/internal/mapping"
	"github.com/hanwei-dev/listing-autofill/internal/models"
	"github.com/hanwei-dev/listing-autofill/internal/page"
	"github.com/hanwei-dev/listing-autofill/internal/queue"
)

const productHTML = `<html><body>
<span id="productTitle">Acme Standing Desk</span>
<a id="bylineInfo">Visit the Acme Store</a>
<input id="attach-base-product-price" type="hidden" value="99.99"/>
<input id="attach-base-product-currency-symbol" type="hidden" value="$"/>
<div data-a-accordion-row-name="memberPrice">
  <div class="accordion-caption">Member Price</div>
  <span class="a-offscreen">$94.99</span>
</div>
<table class="a-keyvalue prodDetTable">
  <tr><th>Item Weight</th><td>35 pounds</td></tr>
  <tr><th>Product Dimensions</th><td>15"D x 22.83"W x 24"H</td></tr>
  <tr><th>Color</th><td>Black</td></tr>
</table>
</body></html>`

type fakeSource struct {
	html string
	err  error
}

func (f *fakeSource) Product(_ context.Context, _ *queue.Job) (page.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return page.NewSnapshot(f.html)
}

type fakeFormWriter struct {
	filled map[string]string
}

func (f *fakeFormWriter) Fill(_ context.Context, target, value string) error {
	if f.filled == nil {
		f.filled = make(map[string]string)
	}
	f.filled[target] = value
	return nil
}

func (f *fakeFormWriter) Inspect(context.Context) ([]form.Field, error) {
	return nil, nil
}

type memoryRunStore struct {
	inserted  []*audit.Run
	completed []*audit.Run
}

func (m *memoryRunStore) InsertRun(_ context.Context, run *audit.Run) error {
	m.inserted = append(m.inserted, run)
	return nil
}

func (m *memoryRunStore) CompleteRun(_ context.Context, run *audit.Run) error {
	m.completed = append(m.completed, run)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRules(t *testing.T) *mapping.RuleSet {
	t.Helper()
	rs, err := mapping.NewRuleSet([]mapping.Rule{
		{Target: "productName", Kind: mapping.KindDirect, Source: "title"},
		{Target: "salePrice", Kind: mapping.KindDirect, Source: "price"},
		{Target: "itemWeight", Kind: mapping.KindCompound, Source: "weight"},
		{Target: "color", Kind: mapping.KindDirect, Source: "detail:Color"},
		{Target: "condition", Kind: mapping.KindFixed, Value: "New"},
	})
	require.NoError(t, err)
	return rs
}

func newTestPipeline(t *testing.T, source Source, writer form.Writer, opts ...PipelineOption) *Pipeline {
	t.Helper()
	logger := testLogger()
	ex := extractor.New(logger)
	projector := form.NewProjector(writer, logger, nil)
	return New(source, ex, testRules(t), projector, logger, opts...)
}

func TestProcessFillsFormFromPage(t *testing.T) {
	writer := &fakeFormWriter{}
	store := &memoryRunStore{}
	p := newTestPipeline(t, &fakeSource{html: productHTML}, writer, WithRunStore(store))

	result := p.Process(context.Background(), queue.NewJob("B0TEST0001", "https://www.amazon.com/dp/B0TEST0001"))

	require.NoError(t, result.Err)
	require.NotNil(t, result.Record)

	// The hidden base price wins over the member price on the page.
	require.NotNil(t, result.Record.Price)
	assert.Equal(t, 99.99, result.Record.Price.Amount)
	assert.Equal(t, models.PriceSourceHiddenField, result.Record.Price.Source)

	assert.Equal(t, "Acme Standing Desk", writer.filled["productName"])
	assert.Equal(t, "99.99", writer.filled["salePrice"])
	assert.Equal(t, "35 lb", writer.filled["itemWeight"])
	assert.Equal(t, "Black", writer.filled["color"])
	assert.Equal(t, "New", writer.filled["condition"])

	assert.Equal(t, form.FillStats{Attempts: 5, Filled: 5}, result.Stats)

	require.Len(t, store.completed, 1)
	assert.Equal(t, audit.RunStatusCompleted, store.completed[0].Status)
	assert.Equal(t, 5, store.completed[0].Filled)
}

func TestProcessSourceFailureFailsRun(t *testing.T) {
	store := &memoryRunStore{}
	p := newTestPipeline(t, &fakeSource{err: errors.New("navigation timeout")}, &fakeFormWriter{}, WithRunStore(store))

	result := p.Process(context.Background(), queue.NewJob("B0TEST0002", ""))

	require.Error(t, result.Err)
	require.Len(t, store.completed, 1)
	assert.Equal(t, audit.RunStatusFailed, store.completed[0].Status)
	assert.NotEmpty(t, store.completed[0].Error)
}

func TestProcessEmptyPageFailsRun(t *testing.T) {
	writer := &fakeFormWriter{}
	p := newTestPipeline(t, &fakeSource{html: "<html><body><p>gone</p></body></html>"}, writer)

	result := p.Process(context.Background(), queue.NewJob("B0TEST0003", ""))

	assert.ErrorIs(t, result.Err, ErrNoProductData)
	assert.Empty(t, writer.filled)
}

func TestDrainProcessesQueueInOrder(t *testing.T) {
	writer := &fakeFormWriter{}
	p := newTestPipeline(t, &fakeSource{html: productHTML}, writer)

	q := queue.NewInMemoryQueue()
	require.NoError(t, q.Push(queue.NewJob("B0TEST0001", "")))
	require.NoError(t, q.Push(queue.NewJob("B0TEST0002", "")))
	require.NoError(t, q.Close())

	results, err := p.Drain(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "B0TEST0001", results[0].ASIN)
	assert.Equal(t, "B0TEST0002", results[1].ASIN)
}
