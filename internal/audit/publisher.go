package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher delivers audit events to a sink. Callers log failures and carry on.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

func stamp(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}

// LogPublisher writes events to the structured log. It is the sink used when
// no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	event = stamp(event)
	p.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"gstin_hash", event.GSTINHash,
		"gstin_state", event.StateCode,
		"outcome", event.Outcome,
		"source", event.Source,
		"client_id", event.ClientID,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
		"timestamp", event.Timestamp,
	)
	return nil
}

// MemoryPublisher keeps events in memory. Used by tests and local runs.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, stamp(event))
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
