// Package progress defines the event structures emitted by the enrichment
// driver while a run is in flight.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart Stage = "RUN_START"
	StageRowDone  Stage = "ROW_DONE"
	StageFlush    Stage = "FLUSH"
	StageRunDone  Stage = "RUN_DONE"
	StageRunError Stage = "RUN_ERROR"
)

// Outcome labels how a single row resolved.
type Outcome string

// Supported row outcomes. Deferred rows were not marked processed and
// will be retried on the next run.
const (
	OutcomeFetched  Outcome = "fetched"
	OutcomeAbsent   Outcome = "absent"
	OutcomeNoKey    Outcome = "nokey"
	OutcomeDeferred Outcome = "deferred"
)

// Event captures a single milestone of an enrichment run.
type Event struct {
	// RunID uniquely identifies a run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or row milestone occurred.
	Stage Stage
	// RowIndex is the row's position in canonical load order.
	RowIndex int
	// TMDBID is the external key for fetch outcomes, zero otherwise.
	TMDBID int64
	// Outcome labels ROW_DONE events.
	Outcome Outcome
	// Processed is the cumulative processed-row count at emission time.
	Processed int64
	// Total is the full row count of the run.
	Total int64
	// Dur captures fetch latency and run wall time.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageFlush, StageRunDone, StageRunError:
	case StageRowDone:
		if e.Outcome == "" {
			return errors.New("row done requires an outcome")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for display.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
