// Package requestcontext carries request-scoped facts through context so
// services and audit sinks can read them without importing net/http.
// Middleware writes them; tests may write them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	keyClient key = iota
	keyRequestID
	keyRequestTime
)

// client is what the metadata middleware learns about the caller.
type client struct {
	ip        string
	userAgent string
}

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// WithClientMetadata records the caller's address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(ctx, keyClient, client{ip: clientIP, userAgent: userAgent})
}

// ClientIP is the caller's address, or "" outside a request.
func ClientIP(ctx context.Context) string {
	c, _ := value[client](ctx, keyClient)
	return c.ip
}

func UserAgent(ctx context.Context) string {
	c, _ := value[client](ctx, keyClient)
	return c.userAgent
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID is the correlation ID stamped on logs and audit events.
func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, keyRequestID)
	return id
}

// WithTime pins the clock for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyRequestTime, t)
}

// Now is the pinned request time, or the wall clock when none was set (CLI
// commands, background workers).
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, keyRequestTime); ok {
		return t
	}
	return time.Now()
}
