package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"turia/pkg/requestcontext"
)

// WithClientIP sets the client address the metadata middleware would have
// extracted.
func WithClientIP(req *http.Request, clientIP string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, req.UserAgent()))
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithURLParam sets a chi route parameter so handlers can be called without
// a router.
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
