// Package sinks provides progress.Sink implementations: structured logging,
// Prometheus export, and an in-memory status tracker for the ops API.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/flicklab/tmdb-enricher/internal/progress"
)

// LogSink emits structured logs for the progress stream. Row events log at
// debug level to keep a full 87k-row run readable; lifecycle and flush
// events log at info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.Int64("processed", evt.Processed),
			zap.Int64("total", evt.Total),
		}
		if evt.Stage == progress.StageRowDone {
			fields = append(fields,
				zap.Int("row", evt.RowIndex),
				zap.String("outcome", string(evt.Outcome)),
			)
			if evt.TMDBID != 0 {
				fields = append(fields, zap.Int64("tmdb_id", evt.TMDBID))
			}
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Stage == progress.StageRowDone {
			s.logger.Debug("progress event", fields...)
		} else {
			s.logger.Info("progress event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
