package feeds

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLive struct {
	current    domain.WeatherObservation
	series     []domain.WeatherObservation
	currentErr error
	seriesErr  error
	block      bool
}

func (m *mockLive) Current(ctx context.Context, _ string) (domain.WeatherObservation, error) {
	if m.block {
		<-ctx.Done()
		return domain.WeatherObservation{}, ctx.Err()
	}
	return m.current, m.currentErr
}

func (m *mockLive) Forecast(ctx context.Context, _ string) ([]domain.WeatherObservation, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.series, m.seriesErr
}

type mockModel struct {
	points []domain.ModelForecastPoint
	err    error
	months int
}

func (m *mockModel) MonthlyForecast(_ context.Context, _ string, _ domain.DiseaseID, months int) ([]domain.ModelForecastPoint, error) {
	m.months = months
	return m.points, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{LiveTimeout: 50 * time.Millisecond, ModelTimeout: 50 * time.Millisecond}
}

// --- tests ---

func TestCollect_AllSources(t *testing.T) {
	live := &mockLive{
		current: domain.WeatherObservation{Temperature: 30},
		series:  []domain.WeatherObservation{{Temperature: 29}, {Temperature: 31}},
	}
	model := &mockModel{points: []domain.ModelForecastPoint{{Month: "Aug", Risk: 80}}}
	c := NewCollector(live, model, testConfig(), discardLogger(), observability.NewMetricsForTesting())

	in := c.Collect(context.Background(), "Mumbai", domain.Dengue, 6)

	require.NotNil(t, in.Current)
	assert.InDelta(t, 30, in.Current.Temperature, 0)
	assert.Len(t, in.Series, 2)
	assert.Len(t, in.Model, 1)
	assert.Equal(t, 6, model.months)
}

func TestCollect_FailuresAreAbsorbed(t *testing.T) {
	live := &mockLive{currentErr: errors.New("timeout"), seriesErr: errors.New("502")}
	model := &mockModel{err: errors.New("refused")}
	metrics := observability.NewMetricsForTesting()
	c := NewCollector(live, model, testConfig(), discardLogger(), metrics)

	in := c.Collect(context.Background(), "Delhi", domain.Malaria, 3)

	assert.Nil(t, in.Current)
	assert.Nil(t, in.Series)
	assert.Nil(t, in.Model)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedFallbacks.WithLabelValues("current")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedFallbacks.WithLabelValues("forecast")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedFallbacks.WithLabelValues("model")), 0)
}

func TestCollect_SlowSourceTimesOut(t *testing.T) {
	c := NewCollector(&mockLive{block: true}, nil, testConfig(), discardLogger(), observability.NewMetricsForTesting())

	start := time.Now()
	in := c.Collect(context.Background(), "Pune", domain.Cholera, 3)

	assert.Less(t, time.Since(start), time.Second)
	assert.Nil(t, in.Current)
	assert.Nil(t, in.Series)
}

func TestCollect_NilSources(t *testing.T) {
	c := NewCollector(nil, nil, testConfig(), discardLogger(), observability.NewMetricsForTesting())

	in := c.Collect(context.Background(), "Pune", domain.Cholera, 3)
	assert.Equal(t, Inputs{}, in)
	assert.Nil(t, c.Current(context.Background(), "Pune"))
}

func TestInputs_ForecastInputs(t *testing.T) {
	current := &domain.WeatherObservation{Temperature: 33}

	t.Run("series wins", func(t *testing.T) {
		in := Inputs{Current: current, Series: []domain.WeatherObservation{{Temperature: 1}, {Temperature: 2}}}
		out := in.ForecastInputs()
		require.Len(t, out.Live, 2)
		assert.InDelta(t, 2, out.Live[1].Temperature, 0)
	})

	t.Run("current feeds first offset", func(t *testing.T) {
		out := Inputs{Current: current}.ForecastInputs()
		require.Len(t, out.Live, 1)
		assert.Same(t, current, out.Live[0])
	})

	t.Run("nothing", func(t *testing.T) {
		out := Inputs{}.ForecastInputs()
		assert.Nil(t, out.Live)
		assert.Nil(t, out.Model)
	})
}
