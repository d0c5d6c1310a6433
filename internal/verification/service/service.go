// Package service is the GSTIN verification orchestrator. It runs the grammar
// check, asks the upstream, and consults the fallback table when the upstream
// cannot answer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"turia/internal/audit"
	"turia/internal/verification"
	"turia/internal/verification/metrics"
	"turia/internal/verification/models"
	"turia/pkg/gstin"
	"turia/pkg/platform/circuit"
	"turia/pkg/requestcontext"
)

const (
	tracerName      = "turia/internal/verification/service"
	outcomeVerified = "verified"
)

var errEmptyResult = errors.New("upstream returned no result")

// Upstream is the authoritative lookup.
type Upstream interface {
	Lookup(ctx context.Context, id string) (*models.Result, error)
	Configured() bool
	Health(ctx context.Context) error
	BreakerState() circuit.State
}

// FallbackResolver answers for a fixed set of known identifiers.
type FallbackResolver interface {
	Resolve(id string) (models.Result, bool)
	IDs() []string
}

// AuditPublisher receives one event per terminal outcome.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates a verification. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	upstream Upstream
	fallback FallbackResolver
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(upstream Upstream, fallback FallbackResolver, opts ...Option) *Service {
	s := &Service{
		upstream: upstream,
		fallback: fallback,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Verify resolves raw into a verified result. Every error is a
// *verification.Error.
func (s *Service) Verify(ctx context.Context, raw string) (*models.Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "gstin.verify")
	defer span.End()

	result, err := s.verify(ctx, raw)

	outcome, source := outcomeVerified, ""
	if err != nil {
		outcome = string(verification.CategoryOf(err))
		span.SetStatus(codes.Error, outcome)
	} else {
		source = string(result.Source)
	}
	span.SetAttributes(
		attribute.String("verification.outcome", outcome),
		attribute.String("verification.source", source),
	)

	elapsed := time.Since(start)
	s.metrics.ObserveOutcome(outcome, source, elapsed)
	s.record(ctx, raw, outcome, source, elapsed)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) verify(ctx context.Context, raw string) (*models.Result, error) {
	if !gstin.Valid(raw) {
		return nil, verification.Malformed()
	}

	result, err := s.upstream.Lookup(ctx, raw)
	if err == nil {
		if result == nil {
			return nil, verification.Unknown(errEmptyResult)
		}
		result.Verified = true
		if result.Source == "" {
			result.Source = models.SourceUpstream
		}
		return result, nil
	}

	verr := verification.Classify(err)
	switch verr.Category {
	case verification.CategoryCredentialsMissing, verification.CategoryUpstreamUnavailable:
		return s.resolveFallback(ctx, raw, verr)
	default:
		return nil, verr
	}
}

func (s *Service) resolveFallback(ctx context.Context, id string, trigger *verification.Error) (*models.Result, error) {
	record, ok := s.fallback.Resolve(id)
	s.metrics.ObserveFallback(string(trigger.Category), ok)
	if !ok {
		s.logger.DebugContext(ctx, "fallback miss",
			"gstin", gstin.Mask(id),
			"trigger", trigger.Category,
		)
		return nil, verification.NotFound()
	}
	s.logger.InfoContext(ctx, "gstin served from fallback table",
		"gstin", gstin.Mask(id),
		"trigger", trigger.Category,
		"cause", trigger.Cause,
	)
	return &record, nil
}

func (s *Service) record(ctx context.Context, raw, outcome, source string, elapsed time.Duration) {
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    audit.ActionGSTINVerified,
		Outcome:   outcome,
		Source:    source,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	}
	if outcome != outcomeVerified {
		event.Action = audit.ActionGSTINVerificationFailed
	}
	if gstin.Valid(raw) {
		event.GSTINHash = audit.HashGSTIN(raw)
		event.StateCode = gstin.GSTIN(raw).StateCode()
	}

	level := slog.LevelInfo
	if outcome == string(verification.CategoryUnknownFailure) {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "gstin verification finished",
		"request_id", event.RequestID,
		"gstin_state", event.StateCode,
		"outcome", outcome,
		"source", source,
		"duration_ms", elapsed.Milliseconds(),
	)

	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit verification audit event",
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

// ConnectionStatus is the outcome of a connection test.
type ConnectionStatus struct {
	Configured        bool          `json:"configured"`
	UpstreamReachable bool          `json:"upstream_reachable"`
	CircuitState      circuit.State `json:"circuit_state"`
	FallbackIDs       []string      `json:"fallback_ids"`
	Message           string        `json:"message"`
}

// TestConnection reports whether the upstream is configured and reachable,
// and which identifiers the fallback table can serve meanwhile.
func (s *Service) TestConnection(ctx context.Context) ConnectionStatus {
	status := ConnectionStatus{
		Configured:   s.upstream.Configured(),
		CircuitState: s.upstream.BreakerState(),
		FallbackIDs:  s.fallback.IDs(),
	}
	if !status.Configured {
		status.Message = verification.MsgCredentialsMissing
		return status
	}
	if err := s.upstream.Health(ctx); err != nil {
		status.Message = verification.Classify(err).Message
		s.logger.WarnContext(ctx, "mastergst connection test failed", "error", err)
		return status
	}
	status.UpstreamReachable = true
	status.Message = "MasterGST API is reachable"
	return status
}
