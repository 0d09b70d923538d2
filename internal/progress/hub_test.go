package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklab/tmdb-enricher/internal/progress"
)

type captureSink struct {
	mu     sync.Mutex
	events []progress.Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() ([]progress.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Event(nil), s.events...), s.closed
}

func event(stage progress.Stage) progress.Event {
	evt := progress.Event{
		RunID: progress.UUIDToBytes(uuid.New()),
		TS:    time.Now().UTC(),
		Stage: stage,
	}
	if stage == progress.StageRowDone {
		evt.Outcome = progress.OutcomeFetched
	}
	return evt
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, event(progress.StageRunStart).Validate())

	missing := event(progress.StageRowDone)
	missing.Outcome = ""
	require.Error(t, missing.Validate())

	unknown := event(progress.StageRunStart)
	unknown.Stage = "BOGUS"
	require.Error(t, unknown.Validate())

	var zero progress.Event
	require.Error(t, zero.Validate())
}

func TestHubDeliversAndCloses(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{FlushInterval: 10 * time.Millisecond}, sink)

	hub.Emit(event(progress.StageRunStart))
	hub.Emit(event(progress.StageRowDone))
	hub.Emit(event(progress.StageRunDone))

	require.NoError(t, hub.Close(context.Background()))

	events, closed := sink.snapshot()
	assert.Len(t, events, 3)
	assert.True(t, closed)
}

func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := progress.NewHub(progress.Config{}, sink)

	hub.Emit(progress.Event{}) // fails validation
	require.NoError(t, hub.Close(context.Background()))

	events, _ := sink.snapshot()
	assert.Empty(t, events)
}

func TestHubCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := progress.NewHub(progress.Config{}, &captureSink{})
	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
}
