package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueueFull is returned by Worker.Emit when the inbox cannot take more events.
var ErrQueueFull = errors.New("audit queue full")

const defaultQueueSize = 256

// Worker decouples callers from a slow sink. Emit enqueues without blocking;
// Run forwards queued events to the sink until the context ends.
type Worker struct {
	sink   Publisher
	inbox  chan Event
	logger *slog.Logger
}

type WorkerOption func(*Worker)

func WithQueueSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan Event, n)
		}
	}
}

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWorker(sink Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{
		sink:   sink,
		inbox:  make(chan Event, defaultQueueSize),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Emit enqueues event. It never blocks the caller.
func (w *Worker) Emit(_ context.Context, event Event) error {
	select {
	case w.inbox <- stamp(event):
		return nil
	default:
		return ErrQueueFull
	}
}

// Run forwards events until ctx is done, then flushes what is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.forward(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) forward(ctx context.Context, event Event) {
	if err := w.sink.Emit(ctx, event); err != nil {
		w.logger.WarnContext(ctx, "audit event dropped",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
