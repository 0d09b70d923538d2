package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/progress"
)

func runBatch(runID [16]byte) []progress.Event {
	now := time.Now().UTC()
	return []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart, Total: 4},
		{RunID: runID, TS: now, Stage: progress.StageRowDone, RowIndex: 0, TMDBID: 550,
			Outcome: progress.OutcomeFetched, Processed: 1, Total: 4, Dur: 120 * time.Millisecond},
		{RunID: runID, TS: now, Stage: progress.StageRowDone, RowIndex: 1,
			Outcome: progress.OutcomeNoKey, Processed: 2, Total: 4},
		{RunID: runID, TS: now, Stage: progress.StageRowDone, RowIndex: 2, TMDBID: 99,
			Outcome: progress.OutcomeDeferred, Processed: 2, Total: 4, Note: "tmdb returned 500"},
		{RunID: runID, TS: now, Stage: progress.StageFlush, Processed: 2, Total: 4},
		{RunID: runID, TS: now, Stage: progress.StageRunDone, Processed: 2, Total: 4, Dur: 90 * time.Second},
	}
}

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are
// incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	require.NoError(t, sink.Consume(context.Background(), runBatch(runID)))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.rowsProcessed.WithLabelValues("fetched")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.rowsProcessed.WithLabelValues("nokey")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.rowsDeferred))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.flushes))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.processedRows))
	require.Equal(t, 1, testutil.CollectAndCount(sink.fetchDuration, "enricher_fetch_duration_seconds"))
}

func TestPrometheusSinkDoubleRegister(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}

func TestStatusSinkSnapshot(t *testing.T) {
	t.Parallel()

	sink := NewStatusSink()
	runID := progress.UUIDToBytes(uuid.New())
	require.NoError(t, sink.Consume(context.Background(), runBatch(runID)))

	snap := sink.Current()
	assert.False(t, snap.Running)
	assert.Equal(t, int64(2), snap.Processed)
	assert.Equal(t, int64(4), snap.Total)
	assert.Equal(t, int64(1), snap.Fetched)
	assert.Equal(t, int64(1), snap.NoKey)
	assert.Equal(t, int64(1), snap.Deferred)
	assert.Equal(t, int64(1), snap.Flushes)
	assert.Equal(t, uuid.UUID(runID).String(), snap.RunID)
}

func TestLogSinkDoesNotError(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(zap.NewNop())
	runID := progress.UUIDToBytes(uuid.New())
	require.NoError(t, sink.Consume(context.Background(), runBatch(runID)))
	require.NoError(t, sink.Close(context.Background()))
}
