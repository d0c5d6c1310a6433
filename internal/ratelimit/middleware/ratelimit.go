package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"turia/internal/ratelimit/metrics"
	"turia/internal/ratelimit/models"
	"turia/pkg/platform/circuit"
	"turia/pkg/platform/httputil"
	metadata "turia/pkg/platform/middleware/metadata"
	"turia/pkg/requestcontext"
)

const (
	backendPrimary  = "primary"
	backendFallback = "fallback"

	defaultFailureThreshold = 5
	defaultSuccessThreshold = 3
)

// Limiter decides whether one more request from identifier fits the window.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (*models.Result, error)
}

// Middleware limits requests per client IP. When the primary limiter errors
// the in-memory fallback decides instead; requests are never let through
// unchecked while a fallback is configured.
type Middleware struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// WithBreakerThresholds sets how many consecutive primary errors open the
// breaker and how many successes close it again.
func WithBreakerThresholds(failures, successes int) Option {
	return func(m *Middleware) {
		m.breaker = newBreaker(failures, successes)
	}
}

func newBreaker(failures, successes int) *circuit.Breaker {
	return circuit.New("ratelimit-primary",
		circuit.WithFailureThreshold(failures),
		circuit.WithSuccessThreshold(successes),
	)
}

// New builds the middleware. fallback may be nil, in which case primary
// errors let the request through.
func New(primary, fallback Limiter, opts ...Option) *Middleware {
	m := &Middleware{
		primary:  primary,
		fallback: fallback,
		breaker:  newBreaker(defaultFailureThreshold, defaultSuccessThreshold),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit returns the per-IP limiting handler wrapper.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = metadata.ClientIPFromRequest(r)
		}

		result, backend := m.check(ctx, ip)
		if result == nil {
			next.ServeHTTP(w, r)
			return
		}
		m.metrics.ObserveDecision(result.Allowed, backend)

		addRateLimitHeaders(w, result)
		if backend == backendFallback {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		if !result.Allowed {
			m.logger.InfoContext(ctx, "verification rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"ip_prefix", anonymizeIP(ip),
				"backend", backend,
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// check asks the primary limiter and falls back while it is failing. A nil
// result means no limiter could decide.
func (m *Middleware) check(ctx context.Context, ip string) (*models.Result, string) {
	result, err := m.primary.Allow(ctx, ip)
	if err != nil {
		m.metrics.IncBackendErrors()
		if _, change := m.breaker.RecordFailure(); change.Opened {
			m.metrics.SetDegraded(true)
			m.logger.WarnContext(ctx, "primary rate limiter failing, using in-memory fallback", "error", err)
		}
		return m.fromFallback(ctx, ip, err)
	}

	if m.breaker.IsOpen() {
		if _, change := m.breaker.RecordSuccess(); change.Closed {
			m.metrics.SetDegraded(false)
			m.logger.InfoContext(ctx, "primary rate limiter recovered")
			return result, backendPrimary
		}
		return m.fromFallback(ctx, ip, nil)
	}
	m.breaker.RecordSuccess()
	return result, backendPrimary
}

func (m *Middleware) fromFallback(ctx context.Context, ip string, primaryErr error) (*models.Result, string) {
	if m.fallback == nil {
		m.logger.ErrorContext(ctx, "rate limit check failed with no fallback", "error", primaryErr)
		return nil, ""
	}
	result, err := m.fallback.Allow(ctx, ip)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed", "error", err)
		return nil, ""
	}
	return result, backendFallback
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Success:          false,
		Error:            "rate_limit_exceeded",
		ErrorDescription: "Too many verification requests from this IP address. Please try again later.",
		RetryAfter:       result.RetryAfter,
	})
}
