package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(testAPIKey, baseURL, 5*time.Second,
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Mumbai", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"dt": 1754000000,
			"main": {"temp": 28.4, "humidity": 88},
			"weather": [{"description": "moderate rain", "icon": "10d"}],
			"rain": {"1h": 6.2}
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Current(context.Background(), "Mumbai")
	require.NoError(t, err)

	assert.InDelta(t, 28.4, obs.Temperature, 1e-9)
	assert.InDelta(t, 88, obs.Humidity, 0)
	assert.InDelta(t, 6.2, obs.Rainfall, 1e-9)
	assert.Equal(t, "moderate rain", obs.Condition)
	assert.Equal(t, "10d", obs.Icon)
	assert.Equal(t, time.Unix(1754000000, 0).UTC(), obs.ObservedAt)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.LiveRequests.WithLabelValues("weather", "success")), 0)
}

func TestClient_Current_NoRainBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"dt": 1, "main": {"temp": 41, "humidity": 12}, "weather": []}`))
	}))
	defer srv.Close()

	obs, err := testClient(srv.URL).Current(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.InDelta(t, 41, obs.Temperature, 0)
	assert.Zero(t, obs.Rainfall)
	assert.Empty(t, obs.Condition)
}

func TestClient_Forecast_DailyBuckets(t *testing.T) {
	day1 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"list": [
			{"dt": ` + unix(day1.Add(9*time.Hour)) + `, "main": {"temp": 26, "humidity": 80}, "weather": [{"description": "light rain", "icon": "10n"}], "rain": {"3h": 4}},
			{"dt": ` + unix(day1.Add(12*time.Hour)) + `, "main": {"temp": 30, "humidity": 70}, "weather": [{"description": "clouds"}], "rain": {"3h": 6}},
			{"dt": ` + unix(day2.Add(3*time.Hour)) + `, "main": {"temp": 25, "humidity": 90}, "weather": [{"description": "heavy rain"}], "rain": {"3h": 20}}
		]}`))
	}))
	defer srv.Close()

	series, err := testClient(srv.URL).Forecast(context.Background(), "Pune")
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, day1, series[0].ObservedAt)
	assert.InDelta(t, 28, series[0].Temperature, 1e-9)
	assert.InDelta(t, 75, series[0].Humidity, 1e-9)
	assert.InDelta(t, 10, series[0].Rainfall, 1e-9)
	assert.Equal(t, "light rain", series[0].Condition)

	assert.Equal(t, day2, series[1].ObservedAt)
	assert.InDelta(t, 25, series[1].Temperature, 1e-9)
	assert.InDelta(t, 20, series[1].Rainfall, 1e-9)
}

func TestClient_Forecast_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer srv.Close()

	series, err := testClient(srv.URL).Forecast(context.Background(), "Pune")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Current(context.Background(), "Delhi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid API key")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.LiveRequests.WithLabelValues("weather", "error")), 0)
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), "Delhi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode forecast response")
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Current(ctx, "Delhi")
	require.Error(t, err)
}

func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
