// Package upstream is the MasterGST public-search client. It issues a single
// bounded request per lookup and normalizes every response shape into either a
// models.Result or a classified verification error.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"turia/internal/verification"
	"turia/internal/verification/models"
	"turia/pkg/gstin"
	"turia/pkg/platform/circuit"
)

const (
	// DefaultBaseURL is the MasterGST API root.
	DefaultBaseURL = "https://api.mastergst.com"

	// DefaultEmail is the contact email MasterGST expects on public search calls.
	DefaultEmail = "apisales@mastergst.com"

	// DefaultTimeout bounds one lookup end to end.
	DefaultTimeout = 15 * time.Second

	searchPath      = "/public/search"
	maxResponseSize = 1 << 20
	tracerName      = "turia/internal/verification/upstream"
)

// ErrCircuitOpen is the cause attached when the breaker short-circuits a lookup.
var ErrCircuitOpen = errors.New("mastergst circuit open")

// Config carries everything the client needs; there are no package globals.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Email        string
	Timeout      time.Duration
}

// HasCredentials reports whether both client id and secret are set.
func (c Config) HasCredentials() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Email == "" {
		c.Email = DefaultEmail
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client looks identifiers up against MasterGST.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overridden by Config.Timeout when unset.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBreaker guards the upstream with a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithLogger sets the logger used for upstream diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client from cfg.
func New(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = cfg.Timeout
	}
	return c
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.HasCredentials()
}

// BreakerState returns the breaker state, or closed when no breaker is set.
func (c *Client) BreakerState() circuit.State {
	if c.breaker == nil {
		return circuit.StateClosed
	}
	return c.breaker.State()
}

// Lookup resolves id against MasterGST. It never retries. Every failure is a
// *verification.Error with one of: credentials_missing, not_found,
// upstream_unavailable, upstream_rejected or unknown_failure.
func (c *Client) Lookup(ctx context.Context, id string) (*models.Result, error) {
	if !c.cfg.HasCredentials() {
		return nil, verification.CredentialsMissing()
	}

	ctx, span := c.tracer.Start(ctx, "mastergst.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("gstin.state_code", gstin.GSTIN(id).StateCode())),
	)
	defer span.End()

	if c.breaker != nil && !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		return nil, verification.Unavailable(verification.MsgUpstreamUnreachable, ErrCircuitOpen)
	}

	result, err := c.lookup(ctx, id)
	c.recordOutcome(err)

	if err != nil {
		span.SetAttributes(attribute.String("verification.category", string(verification.CategoryOf(err))))
		span.SetStatus(codes.Error, string(verification.CategoryOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("verification.category", "ok"))
	return result, nil
}

func (c *Client) lookup(ctx context.Context, id string) (*models.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := c.newSearchRequest(ctx, id)
	if err != nil {
		return nil, verification.Unknown(err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "mastergst request failed",
			"gstin", gstin.Mask(id),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, verification.Unavailable(verification.MsgUpstreamUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, verification.Unavailable(verification.MsgUpstreamUnreachable, fmt.Errorf("read response body: %w", err))
	}
	if len(body) > maxResponseSize {
		return nil, verification.Unknown(fmt.Errorf("response exceeds %d bytes", maxResponseSize))
	}

	c.logger.DebugContext(ctx, "mastergst responded",
		"gstin", gstin.Mask(id),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTPFailure(resp.StatusCode, body)
	}
	return decode(id, body)
}

func (c *Client) newSearchRequest(ctx context.Context, id string) (*http.Request, error) {
	u, err := url.Parse(c.cfg.BaseURL + searchPath)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("email", c.cfg.Email)
	q.Set("gstin", id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("client_id", c.cfg.ClientID)
	req.Header.Set("client_secret", c.cfg.ClientSecret)
	return req, nil
}

// recordOutcome feeds the breaker. Only connectivity failures count against
// the upstream; an answered request, even a rejection, is a success.
func (c *Client) recordOutcome(err error) {
	if c.breaker == nil {
		return
	}
	if verification.IsCategory(err, verification.CategoryUpstreamUnavailable) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("mastergst circuit opened", "breaker", c.breaker.Name())
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("mastergst circuit closed", "breaker", c.breaker.Name())
	}
}

// Health checks that credentials are configured and the base URL answers.
// Any HTTP response counts as reachable.
func (c *Client) Health(ctx context.Context) error {
	if !c.cfg.HasCredentials() {
		return verification.CredentialsMissing()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return verification.Unknown(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return verification.Unavailable(verification.MsgUpstreamUnreachable, err)
	}
	_ = resp.Body.Close()
	return nil
}
