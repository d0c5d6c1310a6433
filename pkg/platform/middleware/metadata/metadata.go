// Package metadata copies per-request client facts into the context.
package metadata

import (
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"turia/pkg/requestcontext"
)

// UnknownIP is reported when no address can be recovered from the request.
const UnknownIP = "unknown"

// ClientMetadata copies the client IP, User-Agent and chi request ID into the
// request context so services and audit sinks can read them through
// requestcontext. Mount it after chi's RequestID middleware.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.UserAgent())
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest returns the caller's address. The first entry of
// X-Forwarded-For wins, then X-Real-IP, then the socket peer. Header values
// that do not parse as an IP are skipped.
func ClientIPFromRequest(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if ip := net.ParseIP(strings.TrimSpace(candidate)); ip != nil {
			return ip.String()
		}
	}

	if r.RemoteAddr == "" {
		return UnknownIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
