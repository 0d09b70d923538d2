package api_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklab/tmdb-enricher/internal/api"
	"github.com/flicklab/tmdb-enricher/internal/progress"
	"github.com/flicklab/tmdb-enricher/internal/progress/sinks"
)

func newTestServer(t *testing.T) (*api.Server, *sinks.StatusSink) {
	t.Helper()
	registry := prometheus.NewRegistry()
	_, err := sinks.NewPrometheusSink(registry)
	require.NoError(t, err)
	status := sinks.NewStatusSink()
	return api.NewServer(0, registry, status, nil), status
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "enricher_runs_started_total")
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv, status := newTestServer(t)
	runID := progress.UUIDToBytes(uuid.New())
	require.NoError(t, status.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart, Total: 10},
		{RunID: runID, TS: time.Now(), Stage: progress.StageRowDone,
			Outcome: progress.OutcomeFetched, Processed: 1, Total: 10},
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/status", nil))
	require.Equal(t, 200, rec.Code)

	var snap sinks.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, int64(1), snap.Processed)
	assert.Equal(t, int64(10), snap.Total)
	assert.Equal(t, int64(1), snap.Fetched)
}
