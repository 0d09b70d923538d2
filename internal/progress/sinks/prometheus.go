package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flicklab/tmdb-enricher/internal/progress"
)

// PrometheusSink exports enrichment progress metrics. It owns all
// collectors for run lifecycle, per-outcome row counts, fetch latency, and
// flush activity.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runRuntime    *prometheus.HistogramVec

	rowsProcessed *prometheus.CounterVec
	rowsDeferred  prometheus.Counter
	fetchDuration prometheus.Histogram
	flushes       prometheus.Counter
	processedRows prometheus.Gauge
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enricher_runs_started_total",
			Help: "Total enrichment runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_runs_completed_total",
			Help: "Total enrichment runs completed partitioned by result.",
		}, []string{"result"}),
		runRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enricher_run_runtime_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400},
		}, []string{"result"}),
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enricher_rows_processed_total",
			Help: "Rows marked processed partitioned by outcome.",
		}, []string{"outcome"}),
		rowsDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enricher_rows_deferred_total",
			Help: "Rows left unprocessed for a future run after a transient failure.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enricher_fetch_duration_seconds",
			Help:    "TMDB lookup latency, cooldowns included.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enricher_flushes_total",
			Help: "Checkpoint and output table flushes.",
		}),
		processedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enricher_processed_rows",
			Help: "Cumulative processed rows, checkpointed runs included.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runRuntime,
		s.rowsProcessed,
		s.rowsDeferred,
		s.fetchDuration,
		s.flushes,
		s.processedRows,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		s.processedRows.Set(float64(evt.Processed))
	case progress.StageRowDone:
		if evt.Outcome == progress.OutcomeDeferred {
			s.rowsDeferred.Inc()
		} else {
			s.rowsProcessed.WithLabelValues(string(evt.Outcome)).Inc()
			s.processedRows.Set(float64(evt.Processed))
		}
		if evt.Dur > 0 {
			s.fetchDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageFlush:
		s.flushes.Inc()
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
		s.observeRuntime(evt, "success")
	case progress.StageRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
		s.observeRuntime(evt, "error")
	}
}

func (s *PrometheusSink) observeRuntime(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.runRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
