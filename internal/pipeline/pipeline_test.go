package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/couchcryptid/disease-risk-service/internal/pipeline"
	"github.com/couchcryptid/disease-risk-service/internal/registry"
	"github.com/couchcryptid/disease-risk-service/internal/riskdata"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	failKey string
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (riskdata.Update, error) {
	if string(raw.Key) == m.failKey {
		return riskdata.Update{}, errors.New("bad data")
	}
	return riskdata.Update{City: string(raw.Key), Disease: domain.Dengue}, nil
}

type mockLoader struct {
	mu      sync.Mutex
	loaded  [][]riskdata.Update
	err     error
	calls   int
	failFor int
}

func (m *mockLoader) LoadBatch(_ context.Context, updates []riskdata.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil && m.calls <= m.failFor {
		return m.err
	}
	m.loaded = append(m.loaded, updates)
	return nil
}

func (m *mockLoader) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.loaded {
		n += len(b)
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawEvent(key string, commits *atomic.Int64) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Topic: "disease-risk-table-updates",
		Commit: func(_ context.Context) error {
			if commits != nil {
				commits.Add(1)
			}
			return nil
		},
	}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("Mumbai", &commits), rawEvent("Delhi", &commits)}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Len(t, ldr.loaded[0], 2)
	assert.Equal(t, int64(2), commits.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RowsApplied), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RiskTableRows), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("poison", &commits), rawEvent("Pune", &commits)}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{failKey: "poison"}, ldr, discardLogger(), metrics, 50)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	require.Len(t, ldr.loaded[0], 1)
	assert.Equal(t, "Pune", ldr.loaded[0][0].City)
	assert.Equal(t, int64(2), commits.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 0)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawEvent("Mumbai", &commits)}}}
	ldr := &mockLoader{err: errors.New("swap failed"), failFor: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)
	runFor(t, p, 400*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Zero(t, commits.Load())
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("broker down")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 50)

	start := time.Now()
	runFor(t, p, 300*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 50)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.CheckReadiness(context.Background()) == nil },
		time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_AppliesToStore(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	table, err := riskdata.LoadFile("", reg)
	require.NoError(t, err)
	store := riskdata.NewStore(table)
	before := store.Rows()

	_, ok := store.Lookup("Mumbai", domain.Dengue, 7)
	require.False(t, ok)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{
		{Value: []byte(updatePayload("mumbai", "Dengue", 88))},
	}}}
	p := pipeline.New(ext, pipeline.NewTransformer(reg, discardLogger()), store, discardLogger(), observability.NewMetricsForTesting(), 50)
	runFor(t, p, 300*time.Millisecond)

	v, ok := store.Lookup("Mumbai", domain.Dengue, 7)
	require.True(t, ok)
	assert.InDelta(t, 88, v, 0)
	assert.Equal(t, before+1, store.Rows())
}

func TestUpdateTransformer_Transform(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(reg, discardLogger())

	u, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(updatePayload("KOLKATA", "heat-stroke", 61))})
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", u.City)
	assert.Equal(t, domain.HeatStroke, u.Disease)
	assert.Equal(t, 12, u.Row.Count())

	v, ok := u.Row.At(3)
	require.True(t, ok)
	assert.InDelta(t, 61, v, 0)
}

func TestUpdateTransformer_NullMonths(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(reg, discardLogger())

	payload := `{"city":"Chennai","disease":"cholera","risks":[10,null,30,null,50,null,70,null,90,null,100,null]}`
	u, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(payload)})
	require.NoError(t, err)
	assert.Equal(t, 6, u.Row.Count())
	_, ok := u.Row.At(1)
	assert.False(t, ok)
}

func TestUpdateTransformer_Errors(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(reg, discardLogger())

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"invalid json", "not-json{{{", domain.ErrMalformedPayload},
		{"unknown field", `{"city":"Pune","disease":"cholera","risks":[],"extra":1}`, domain.ErrMalformedPayload},
		{"short row", `{"city":"Pune","disease":"cholera","risks":[1,2,3]}`, domain.ErrMalformedPayload},
		{"out of range", updatePayload("Pune", "cholera", 140), domain.ErrMalformedPayload},
		{"unknown city", updatePayload("Atlantis", "cholera", 10), domain.ErrUnknownCity},
		{"unknown disease", updatePayload("Pune", "plague", 10), domain.ErrUnknownDisease},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte(tt.payload)})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// --- helpers ---

func updatePayload(city, disease string, v float64) string {
	return fmt.Sprintf(`{"city":%q,"disease":%q,"risks":[%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v,%[3]v]}`, city, disease, v)
}
