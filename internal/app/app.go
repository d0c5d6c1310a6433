// Package app wires configuration into the running service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"turia/internal/audit"
	clienthandler "turia/internal/clients/handler"
	clientmetrics "turia/internal/clients/metrics"
	clientservice "turia/internal/clients/service"
	clientstore "turia/internal/clients/store"
	"turia/internal/platform/config"
	"turia/internal/platform/database"
	"turia/internal/platform/httpserver"
	platformmetrics "turia/internal/platform/metrics"
	platformredis "turia/internal/platform/redis"
	rlmetrics "turia/internal/ratelimit/metrics"
	rlmiddleware "turia/internal/ratelimit/middleware"
	rlmodels "turia/internal/ratelimit/models"
	rlstore "turia/internal/ratelimit/store"
	httptransport "turia/internal/transport/http"
	"turia/internal/verification/fallback"
	gsthandler "turia/internal/verification/handler"
	gstmetrics "turia/internal/verification/metrics"
	gstservice "turia/internal/verification/service"
	"turia/internal/verification/upstream"
	"turia/pkg/platform/circuit"
)

// App is the assembled service: an HTTP handler plus the background work
// that runs beside it.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	handler http.Handler
	audit   *audit.Worker
	closers []func()
}

// NewVerifier builds the verification orchestrator from cfg. reg and auditor
// may be nil.
func NewVerifier(cfg config.MasterGST, logger *slog.Logger, reg prometheus.Registerer, auditor gstservice.AuditPublisher) *gstservice.Service {
	breaker := circuit.New("mastergst",
		circuit.WithFailureThreshold(cfg.BreakerThreshold),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	client := upstream.New(upstream.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Email:        cfg.Email,
		Timeout:      cfg.Timeout,
	}, upstream.WithBreaker(breaker), upstream.WithLogger(logger))

	opts := []gstservice.Option{gstservice.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, gstservice.WithMetrics(gstmetrics.New(reg)))
	}
	if auditor != nil {
		opts = append(opts, gstservice.WithAuditPublisher(auditor))
	}
	return gstservice.New(client, fallback.New(), opts...)
}

// New connects backing services and assembles the router. Optional backends
// (Postgres, Redis, Kafka) are skipped when not configured.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{cfg: cfg, logger: logger}
	reg := platformmetrics.NewRegistry()

	sink, err := a.auditSink(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.audit = audit.NewWorker(sink, audit.WithWorkerLogger(logger))

	verifier := NewVerifier(cfg.MasterGST, logger, reg, a.audit)

	db, err := a.openDatabase(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	var (
		store  clientservice.Store
		health httptransport.HealthChecker
	)
	if db != nil {
		pg := clientstore.NewPostgres(db)
		store, health = pg, pg
	} else {
		logger.Info("no database configured, keeping clients in memory")
		store = clientstore.NewInMemory()
	}
	clients := clientservice.New(store, verifier,
		clientservice.WithLogger(logger),
		clientservice.WithMetrics(clientmetrics.New(reg)),
		clientservice.WithAuditPublisher(a.audit),
	)

	limiter, err := a.rateLimiter(ctx, reg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.handler = httptransport.NewRouter(httptransport.Deps{
		Verification: gsthandler.New(verifier, logger),
		Clients:      clienthandler.New(clients, logger),
		RateLimit:    limiter.RateLimit,
		Database:     health,
		Registry:     reg,
		Logger:       logger,
	})
	return a, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and forwards audit events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.audit.Run(ctx)
	})
	g.Go(func() error {
		srv := httpserver.New(a.cfg.Server.Addr, a.handler)
		return httpserver.Run(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)
	})
	return g.Wait()
}

// Close releases backend connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) auditSink(ctx context.Context) (audit.Publisher, error) {
	kc := a.cfg.Kafka
	if len(kc.Brokers) == 0 {
		return audit.NewLogPublisher(a.logger), nil
	}
	kp, err := audit.NewKafkaPublisher(kc.Brokers, kc.AuditTopic, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, kp.Close)

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := kp.EnsureTopic(ensureCtx, kc.Partitions, kc.ReplicationFactor); err != nil {
		a.logger.WarnContext(ctx, "audit topic not ensured, producing anyway", "error", err)
	}
	return kp, nil
}

func (a *App) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, a.cfg.Database)
	if err != nil || db == nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	if a.cfg.Database.AutoMigrate {
		if err := database.Migrate(a.cfg.Database.URL, database.Up); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func (a *App) rateLimiter(ctx context.Context, reg prometheus.Registerer) (*rlmiddleware.Middleware, error) {
	window := rlmodels.Window{Limit: a.cfg.RateLimit.VerifyPerMinute, Duration: time.Minute}
	memory := rlstore.NewInMemory(window)
	opts := []rlmiddleware.Option{
		rlmiddleware.WithLogger(a.logger),
		rlmiddleware.WithMetrics(rlmetrics.New(reg)),
	}

	rc, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return rlmiddleware.New(memory, nil, opts...), nil
	}
	a.closers = append(a.closers, func() { _ = rc.Close() })
	return rlmiddleware.New(rlstore.NewRedis(rc.Client, window), memory, opts...), nil
}
