// Package main wires the compliance core: stores (postgres or in-memory),
// services, the rollback registry, the HTTP router, and the audit worker.
// Business logic lives in the internal packages; main only assembles.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"reguard/internal/access"
	"reguard/internal/access/revocation"
	"reguard/internal/access/token"
	applicabilityhandler "reguard/internal/applicability/handler"
	applicabilitymetrics "reguard/internal/applicability/metrics"
	applicabilitymodels "reguard/internal/applicability/models"
	applicabilityservice "reguard/internal/applicability/service"
	mappingstore "reguard/internal/applicability/store/mapping"
	rulestore "reguard/internal/applicability/store/rule"
	"reguard/internal/auditlog"
	auditloghandler "reguard/internal/auditlog/handler"
	auditmemory "reguard/internal/auditlog/store/memory"
	auditpostgres "reguard/internal/auditlog/store/postgres"
	"reguard/internal/auditlog/worker"
	httptransport "reguard/internal/http"
	orghandler "reguard/internal/org/handler"
	orgservice "reguard/internal/org/service"
	orgstore "reguard/internal/org/store"
	"reguard/internal/platform/config"
	"reguard/internal/platform/httpserver"
	"reguard/internal/platform/logger"
	platformmetrics "reguard/internal/platform/metrics"
	platformredis "reguard/internal/platform/redis"
	requirementhandler "reguard/internal/requirement/handler"
	requirementservice "reguard/internal/requirement/service"
	requirementstore "reguard/internal/requirement/store"
	id "reguard/pkg/domain"
	"reguard/pkg/platform/middleware/auth"
	"reguard/pkg/platform/tx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mappingStore is the full mapping store surface: the service needs the
// MappingStore subset, the rollback applier additionally needs Get.
type mappingStore interface {
	applicabilityservice.MappingStore
	Get(ctx context.Context, tenantID id.TenantID, reqID id.RequirementID, orgID id.OrganizationID) (*applicabilitymodels.Mapping, error)
}

// stores groups one implementation of every persistence interface so run
// can swap postgres and memory wholesale.
type stores struct {
	orgs         orgservice.Store
	requirements requirementservice.Store
	rules        applicabilityservice.RuleStore
	mappings     mappingStore
	audit        auditlog.Store
	runner       tx.Runner
	health       map[string]httptransport.HealthCheck
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	policy := access.DefaultPolicy()
	if cfg.RolesFile != "" {
		loaded, err := access.LoadPolicy(cfg.RolesFile)
		if err != nil {
			return fmt.Errorf("load role policy: %w", err)
		}
		policy = loaded
	}
	gate := access.NewGate(access.WithLogger(log))
	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var denylist revocation.Denylist = revocation.NewMemoryDenylist()
	if redisClient != nil {
		defer redisClient.Close()
		denylist = revocation.NewRedisDenylist(redisClient.Client)
		log.Info("token denylist backed by redis")
	}

	st, cleanup, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	if redisClient != nil {
		st.health["redis"] = redisClient.Health
	}

	// The rollback registry dispatches reverted entries to the applier that
	// knows how to restore that resource type.
	registry := auditlog.NewRegistry()
	registry.Register(auditlog.ResourceApplicabilityRule,
		applicabilityservice.NewRuleApplier(st.rules, st.requirements))
	registry.Register(auditlog.ResourceApplicabilityMapping,
		applicabilityservice.NewMappingApplier(st.mappings, st.orgs))
	registry.Register(auditlog.ResourceOrganization,
		orgservice.NewAttributesApplier(st.orgs))

	auditWorker := worker.New(log, worker.NewMetrics())

	auditSvc := auditlog.NewService(st.audit, registry, gate,
		auditlog.WithLogger(log),
		auditlog.WithTxRunner(st.runner),
		auditlog.WithSink(auditWorker.Sink()),
	)
	orgSvc := orgservice.NewService(gate, st.orgs, auditSvc,
		orgservice.WithLogger(log),
		orgservice.WithTxRunner(st.runner),
	)
	requirementSvc := requirementservice.NewService(gate, st.requirements,
		requirementservice.WithLogger(log),
	)
	applicabilitySvc := applicabilityservice.NewService(gate, st.requirements, st.orgs, st.rules, st.mappings, auditSvc,
		applicabilityservice.WithLogger(log),
		applicabilityservice.WithTxRunner(st.runner),
		applicabilityservice.WithMetrics(applicabilitymetrics.New()),
	)

	if cfg.DevSeed {
		if err := seed(context.Background(), log, policy, tokens, orgSvc, requirementSvc, applicabilitySvc); err != nil {
			return fmt.Errorf("dev seed: %w", err)
		}
	}

	router := httptransport.New(httptransport.Deps{
		Auth:    auth.RequireAuth(tokens, policy, denylist, log),
		Metrics: platformmetrics.NewHTTP(),
		Handlers: []httptransport.Registrar{
			orghandler.New(orgSvc, log),
			requirementhandler.New(requirementSvc, log),
			applicabilityhandler.New(applicabilitySvc, log),
			auditloghandler.New(auditSvc, log),
		},
		Health: st.health,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting reguard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Run drains buffered entries on cancellation before returning.
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("reguard stopped")
	return nil
}

// buildStores selects postgres when DATABASE_URL is set and the in-memory
// implementations otherwise. The returned cleanup closes the pool.
func buildStores(cfg config.Server) (*stores, func(), error) {
	if cfg.DatabaseURL == "" {
		return &stores{
			orgs:         orgstore.NewInMemory(),
			requirements: requirementstore.NewInMemory(),
			rules:        rulestore.NewInMemory(),
			mappings:     mappingstore.NewInMemory(),
			audit:        auditmemory.New(),
			runner:       tx.NewMemoryRunner(),
			health:       map[string]httptransport.HealthCheck{},
		}, func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	for _, schema := range []string{
		orgstore.Schema,
		requirementstore.Schema,
		rulestore.Schema,
		mappingstore.Schema,
		auditpostgres.Schema,
	} {
		if _, err := db.Exec(schema); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &stores{
		orgs:         orgstore.NewPostgres(db),
		requirements: requirementstore.NewPostgres(db),
		rules:        rulestore.NewPostgres(db),
		mappings:     mappingstore.NewPostgres(db),
		audit:        auditpostgres.New(db),
		runner:       tx.NewSQLRunner(db),
		health: map[string]httptransport.HealthCheck{
			"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
		},
	}, func() { _ = db.Close() }, nil
}
