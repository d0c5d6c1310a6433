package store

import (
	"context"
	"sync"
	"time"

	"turia/internal/ratelimit/models"
)

// InMemoryLimiter counts hits per key in fixed windows. Counters from past
// windows are dropped lazily. Not shared across instances.
type InMemoryLimiter struct {
	mu       sync.Mutex
	window   models.Window
	counters map[string]*counter
	swept    time.Time
	now      func() time.Time
}

type counter struct {
	start time.Time
	count int
}

func NewInMemory(window models.Window) *InMemoryLimiter {
	return &InMemoryLimiter{
		window:   window,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Allow records one hit for key and reports whether it is within the limit.
func (l *InMemoryLimiter) Allow(_ context.Context, key string) (*models.Result, error) {
	now := l.now()
	start := l.window.Start(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.counters[key]
	if c == nil || !c.start.Equal(start) {
		if start.After(l.swept) {
			l.sweep(start)
		}
		c = &counter{start: start}
		l.counters[key] = c
	}
	c.count++
	return models.NewResult(l.window, c.count, start, now), nil
}

// Reset clears the counter for key.
func (l *InMemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, key)
	return nil
}

// sweep drops counters from earlier windows. Must be called with mu held.
func (l *InMemoryLimiter) sweep(current time.Time) {
	for k, c := range l.counters {
		if c.start.Before(current) {
			delete(l.counters, k)
		}
	}
	l.swept = current
}
