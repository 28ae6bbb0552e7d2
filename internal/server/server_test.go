package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"flos/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func check(name string, err error) server.Check {
	return server.Check{Name: name, Check: func(context.Context) error { return err }}
}

func get(t *testing.T, srv *server.Server, path string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	srv := server.NewServer(":0", discardLogger(), check("ingest", errors.New("not yet")))

	rec, body := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code, "liveness ignores readiness checks")
	assert.Equal(t, "healthy", body.Status)
}

func TestReadyz_AllChecksPass(t *testing.T) {
	srv := server.NewServer(":0", discardLogger(), check("ingest", nil), check("store", nil))

	rec, body := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, map[string]string{"ingest": "ok", "store": "ok"}, body.Checks)
}

func TestReadyz_OneCheckFails(t *testing.T) {
	srv := server.NewServer(":0", discardLogger(),
		check("ingest", errors.New("no ingestion cycle has committed yet")),
		check("store", nil),
	)

	rec, body := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "no ingestion cycle has committed yet", body.Checks["ingest"])
	assert.Equal(t, "ok", body.Checks["store"])
}

func TestReadyz_NoChecks(t *testing.T) {
	srv := server.NewServer(":0", nil)

	rec, body := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body.Status)
}

func TestReadyz_ChecksGetDeadline(t *testing.T) {
	var hasDeadline bool
	srv := server.NewServer(":0", discardLogger(), server.Check{
		Name: "store",
		Check: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		},
	})

	get(t, srv, "/readyz")
	assert.True(t, hasDeadline)
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, server.NewServer(":0", discardLogger()), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	rec, _ := get(t, server.NewServer(":0", discardLogger()), "/api/v1/status/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
