package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config controls buffering and batching for the Hub.
type Config struct {
	// BufferSize is the size of the internal channel (default 1024).
	BufferSize int
	// MaxBatchEvents flushes once this many events queue (default 256).
	MaxBatchEvents int
	// FlushInterval flushes pending events at this cadence even if the
	// batch is small (default 500ms).
	FlushInterval time.Duration
	// SinkTimeout bounds each sink call during a flush (default 10s).
	SinkTimeout time.Duration
	// Logger is used for warnings; nil means no logging.
	Logger *zap.Logger
}

// Hub aggregates Event streams and fans them out to registered sinks. It
// never blocks emitters: when the buffer is full events are dropped with a
// warning.
type Hub struct {
	cfg    Config
	sinks  []Sink
	events chan Event
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger

	closeOnce sync.Once
}

// NewHub starts the background batching goroutine over the supplied sinks.
// The returned Hub is immediately ready to accept events.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxBatchEvents <= 0 {
		cfg.MaxBatchEvents = 256
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, cfg.BufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues an Event for batching. It never blocks.
func (h *Hub) Emit(evt Event) {
	if h == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	case <-h.stopCh:
	default:
		h.logger.Warn("progress event dropped due to backpressure",
			zap.String("stage", string(evt.Stage)))
	}
}

// Close drains remaining events, flushes and closes sinks, and blocks
// until the background goroutine exits. Safe to call multiple times.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() { close(h.stopCh) })
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub close wait: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.doneCh)
	batch := make([]Event, 0, h.cfg.MaxBatchEvents)
	ticker := time.NewTicker(h.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-h.stopCh:
			h.drain(batch)
			return
		}
	}
}

func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.MaxBatchEvents {
				h.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				h.flush(batch)
			}
			h.closeSinks()
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	copyBatch := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SinkTimeout)
		if err := sink.Consume(ctx, copyBatch); err != nil {
			h.logger.Warn("progress sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

func (h *Hub) closeSinks() {
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.SinkTimeout)
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("progress sink close failed", zap.Error(err))
		}
		cancel()
	}
}
