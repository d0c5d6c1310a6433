package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	clienthandler "turia/internal/clients/handler"
	platformmetrics "turia/internal/platform/metrics"
	gsthandler "turia/internal/verification/handler"
	"turia/pkg/platform/httputil"
	"turia/pkg/platform/middleware/metadata"
	"turia/pkg/platform/middleware/requestlog"
	"turia/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the pieces the router mounts. Database is nil when clients are
// kept in memory; RateLimit is nil when verification is not limited.
type Deps struct {
	Verification *gsthandler.Handler
	Clients      *clienthandler.Handler
	RateLimit    func(http.Handler) http.Handler
	Database     HealthChecker
	Registry     *prometheus.Registry
	Logger       *slog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

// NewRouter wires every public endpoint.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(requestlog.Middleware(logger))

	r.Get("/health", healthHandler(d.Database))
	if d.Registry != nil {
		r.Handle("/metrics", platformmetrics.Handler(d.Registry))
	}

	r.Group(func(r chi.Router) {
		if d.RateLimit != nil {
			r.Use(d.RateLimit)
		}
		d.Verification.Register(r)
	})
	d.Clients.Register(r, d.RateLimit)

	return r
}

func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Database:  "memory",
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			resp.Database = "connected"
			if err := db.Health(ctx); err != nil {
				resp.Database = "disconnected"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
