package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/flicklab/tmdb-enricher/internal/progress"
)

// Snapshot is a point-in-time view of the current run, served by the ops
// HTTP API.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	Running   bool      `json:"running"`
	Processed int64     `json:"processed"`
	Total     int64     `json:"total"`
	Fetched   int64     `json:"fetched"`
	Absent    int64     `json:"absent"`
	NoKey     int64     `json:"nokey"`
	Deferred  int64     `json:"deferred"`
	Flushes   int64     `json:"flushes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusSink keeps an in-memory snapshot of run progress for the ops API.
type StatusSink struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStatusSink builds an empty StatusSink.
func NewStatusSink() *StatusSink {
	return &StatusSink{}
}

// Consume folds the batch into the snapshot.
func (s *StatusSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.snap.RunID = evt.RunUUID().String()
		s.snap.UpdatedAt = evt.TS
		if evt.Total > 0 {
			s.snap.Total = evt.Total
		}
		switch evt.Stage {
		case progress.StageRunStart:
			s.snap.Running = true
			s.snap.Processed = evt.Processed
		case progress.StageRowDone:
			switch evt.Outcome {
			case progress.OutcomeFetched:
				s.snap.Fetched++
			case progress.OutcomeAbsent:
				s.snap.Absent++
			case progress.OutcomeNoKey:
				s.snap.NoKey++
			case progress.OutcomeDeferred:
				s.snap.Deferred++
			}
			if evt.Outcome != progress.OutcomeDeferred {
				s.snap.Processed = evt.Processed
			}
		case progress.StageFlush:
			s.snap.Flushes++
		case progress.StageRunDone, progress.StageRunError:
			s.snap.Running = false
		}
	}
	return nil
}

// Current returns the latest snapshot.
func (s *StatusSink) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Close implements the Sink interface; it performs no action.
func (s *StatusSink) Close(context.Context) error {
	return nil
}
