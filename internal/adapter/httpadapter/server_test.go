package httpadapter_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/disease-risk-service/internal/adapter/httpadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(name string) httpadapter.Check {
	return httpadapter.Check{Name: name, Run: func(context.Context) error { return nil }}
}

func failing(name, msg string) httpadapter.Check {
	return httpadapter.Check{Name: name, Run: func(context.Context) error { return errors.New(msg) }}
}

func newTestServer(checks ...httpadapter.Check) *httpadapter.Server {
	return httpadapter.NewServer("127.0.0.1:0", slog.New(slog.NewTextHandler(io.Discard, nil)), checks...)
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzIgnoresReadiness(t *testing.T) {
	srv := newTestServer(failing("risk_table", "risk table not loaded"))

	rec := serve(srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		checks []httpadapter.Check
		want   int
		body   []string
	}{
		{"no checks", nil, http.StatusOK, nil},
		{"all passing", []httpadapter.Check{passing("risk_table"), passing("pipeline")}, http.StatusOK, nil},
		{
			"pipeline stopped",
			[]httpadapter.Check{passing("risk_table"), failing("pipeline", "not running")},
			http.StatusServiceUnavailable,
			[]string{"pipeline: not running"},
		},
		{
			"both failing",
			[]httpadapter.Check{failing("risk_table", "not loaded"), failing("pipeline", "not running")},
			http.StatusServiceUnavailable,
			[]string{"risk_table: not loaded", "pipeline: not running"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(tt.checks...), "/readyz")
			assert.Equal(t, tt.want, rec.Code)
			for _, s := range tt.body {
				assert.Contains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCheckReadiness_JoinsFailuresByName(t *testing.T) {
	sentinel := errors.New("risk table not loaded")
	srv := newTestServer(
		httpadapter.Check{Name: "risk_table", Run: func(context.Context) error { return sentinel }},
		passing("registry"),
		failing("pipeline", "not running"),
	)

	err := srv.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "risk_table: risk table not loaded")
	assert.Contains(t, err.Error(), "pipeline: not running")
	assert.NotContains(t, err.Error(), "registry")
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	srv := httpadapter.NewServer("127.0.0.1:-1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := srv.Run(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
