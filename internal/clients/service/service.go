package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"turia/internal/audit"
	"turia/internal/clients/metrics"
	"turia/internal/clients/models"
	vmodels "turia/internal/verification/models"
	dErrors "turia/pkg/domain-errors"
	"turia/pkg/gstin"
	"turia/pkg/platform/sentinel"
	"turia/pkg/requestcontext"
)

// Store persists clients.
type Store interface {
	Create(ctx context.Context, client models.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Client, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Client, int, error)
	Update(ctx context.Context, client models.Client) error
	Delete(ctx context.Context, id uuid.UUID) (models.Client, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Verifier checks a GSTIN against the verification pipeline.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*vmodels.Result, error)
}

// AuditPublisher receives client verification events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// registrationDateLayouts are tried in order when copying the upstream
// registration date onto a client.
var registrationDateLayouts = []string{"02/01/2006", time.DateOnly}

// Service manages the client registry.
type Service struct {
	store    Store
	verifier Verifier
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

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

func New(store Store, verifier Verifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		verifier: verifier,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new client. ID, timestamps and defaults are assigned here.
func (s *Service) Create(ctx context.Context, input models.Client) (models.Client, error) {
	now := requestcontext.Now(ctx).UTC()
	client := withDefaults(input, now)
	client.ID = uuid.New()
	client.CreatedAt = now
	client.UpdatedAt = now

	if err := s.store.Create(ctx, client); err != nil {
		return models.Client{}, s.translate(ctx, "create client", err)
	}
	s.metrics.IncOperation("create")
	s.logger.InfoContext(ctx, "client created",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", client.ID,
	)
	return client, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Client, error) {
	client, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Client{}, s.translate(ctx, "get client", err)
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, q models.ListQuery) (models.Page, error) {
	q = q.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	clients, total, err := s.store.List(ctx, q)
	if err != nil {
		return models.Page{}, s.translate(ctx, "list clients", err)
	}
	return models.NewPage(clients, total, q), nil
}

// Update replaces the editable fields of a client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input models.Client) (models.Client, error) {
	var updated models.Client
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx).UTC()
		updated = withDefaults(input, existing.CreatedOn)
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		if updated.GSTIN != existing.GSTIN {
			updated.Verified = false
		}
		return s.store.Update(ctx, updated)
	})
	if err != nil {
		return models.Client{}, s.translate(ctx, "update client", err)
	}
	s.metrics.IncOperation("update")
	return updated, nil
}

// Delete removes a client and returns the deleted record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Client, error) {
	client, err := s.store.Delete(ctx, id)
	if err != nil {
		return models.Client{}, s.translate(ctx, "delete client", err)
	}
	s.metrics.IncOperation("delete")
	s.logger.InfoContext(ctx, "client deleted",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", id,
	)
	return client, nil
}

// ApplyVerification verifies the client's stored GSTIN and copies the
// verified business details onto the record. Verification failures are
// returned unchanged so callers can map their category.
func (s *Service) ApplyVerification(ctx context.Context, id uuid.UUID) (models.Client, *vmodels.Result, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Client{}, nil, s.translate(ctx, "load client for verification", err)
	}
	if existing.GSTIN == "" {
		return models.Client{}, nil, dErrors.New(dErrors.CodeValidation, "client has no GSTIN to verify")
	}

	result, err := s.verifier.Verify(ctx, existing.GSTIN)
	if err != nil {
		s.metrics.IncVerification("failed")
		return models.Client{}, nil, err
	}

	var updated models.Client
	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.GSTIN != existing.GSTIN {
			return dErrors.New(dErrors.CodeConflict, "client GSTIN changed during verification")
		}
		updated = applyResult(current, result)
		updated.UpdatedAt = requestcontext.Now(ctx).UTC()
		return s.store.Update(ctx, updated)
	})
	if err != nil {
		return models.Client{}, nil, s.translate(ctx, "apply verification", err)
	}

	s.metrics.IncVerification("verified")
	s.emit(ctx, updated, result)
	return updated, result, nil
}

func (s *Service) emit(ctx context.Context, client models.Client, result *vmodels.Result) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:    audit.ActionClientVerified,
		GSTINHash: audit.HashGSTIN(client.GSTIN),
		StateCode: gstin.GSTIN(client.GSTIN).StateCode(),
		Outcome:   "verified",
		Source:    string(result.Source),
		ClientID:  client.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit client audit event",
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

// translate maps store sentinels onto domain errors. Domain errors pass through.
func (s *Service) translate(ctx context.Context, op string, err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Client not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "a client with this client code already exists")
	default:
		s.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, op+" failed")
	}
}

func withDefaults(c models.Client, createdOn time.Time) models.Client {
	if c.Currency == "" {
		c.Currency = models.DefaultCurrency
	}
	if c.GSTRegistrationType == "" {
		c.GSTRegistrationType = models.DefaultGSTRegistrationType
	}
	if c.CreatedOn.IsZero() {
		c.CreatedOn = createdOn
	}
	return c
}

// applyResult overwrites client fields with non-empty verified values.
func applyResult(c models.Client, r *vmodels.Result) models.Client {
	if r.LegalName != "" {
		c.BusinessName = r.LegalName
	}
	if r.Address != "" {
		c.Address = r.Address
	}
	if r.StateCode != "" {
		c.State = r.StateCode
	}
	if r.Pincode != "" {
		c.Pincode = r.Pincode
	}
	if d, ok := parseRegistrationDate(r.RegistrationDate); ok {
		c.GSTRegistrationDate = &d
	}
	c.Verified = true
	return c
}

func parseRegistrationDate(s string) (time.Time, bool) {
	for _, layout := range registrationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
