// Command server wires the protocol core: stores, services, the HTTP surface,
// and the audit worker. Business logic lives in the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"stakeport/internal/external"
	"stakeport/internal/external/fake"
	governanceHandler "stakeport/internal/governance/handler"
	governanceMetrics "stakeport/internal/governance/metrics"
	governancePorts "stakeport/internal/governance/ports"
	governanceService "stakeport/internal/governance/service"
	governanceStore "stakeport/internal/governance/store"
	maintainerHandler "stakeport/internal/maintainer/handler"
	maintainerService "stakeport/internal/maintainer/service"
	oracleHandler "stakeport/internal/oracle/handler"
	oracleMetrics "stakeport/internal/oracle/metrics"
	oracleModels "stakeport/internal/oracle/models"
	oraclePorts "stakeport/internal/oracle/ports"
	oracleService "stakeport/internal/oracle/service"
	oracleStore "stakeport/internal/oracle/store"
	"stakeport/internal/platform/config"
	"stakeport/internal/platform/guard"
	"stakeport/internal/platform/httpserver"
	"stakeport/internal/platform/logger"
	"stakeport/internal/platform/middleware"
	platformRedis "stakeport/internal/platform/redis"
	proposalStore "stakeport/internal/proposal/store"
	registryHandler "stakeport/internal/registry/handler"
	registryPorts "stakeport/internal/registry/ports"
	registryService "stakeport/internal/registry/service"
	registryStore "stakeport/internal/registry/store"
	httptransport "stakeport/internal/transport/http"
	"stakeport/pkg/domain"
	"stakeport/pkg/platform/audit"
	auditMemory "stakeport/pkg/platform/audit/store/memory"
	auditPostgres "stakeport/pkg/platform/audit/store/postgres"
	auditWorker "stakeport/pkg/platform/audit/worker"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	protocol, err := config.ProtocolFromEnv()
	if err != nil {
		log.Error("invalid protocol configuration", "error", err.Error())
		os.Exit(1)
	}

	// Storage: postgres when configured, in-memory otherwise.
	var db *sql.DB
	if cfg.PostgresURL != "" {
		if db, err = sql.Open("postgres", cfg.PostgresURL); err != nil {
			log.Error("postgres open failed", "error", err.Error())
			os.Exit(1)
		}
		if err = db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
	}

	var (
		entities     registryPorts.EntityStore
		proposals    governancePorts.ProposalStore
		govParams    governancePorts.ParamsStore
		oraclePrices oraclePorts.PriceStore
		oracleParams oraclePorts.ParamsStore
		auditStore   audit.Store
	)
	if db != nil {
		entities = registryStore.NewPostgresEntityStore(db)
		proposals = proposalStore.NewPostgresProposalStore(db)
		govParams = governanceStore.NewPostgresParamsStore(db)
		oraclePrices = oracleStore.NewPostgresPriceStore(db)
		oracleParams = oracleStore.NewPostgresParamsStore(db)
		auditStore = auditPostgres.New(db)
	} else {
		entities = registryStore.NewInMemoryEntityStore()
		proposals = proposalStore.NewInMemoryProposalStore()
		govParams = governanceStore.NewInMemoryParamsStore()
		oraclePrices = oracleStore.NewInMemoryPriceStore()
		oracleParams = oracleStore.NewInMemoryParamsStore()
		auditStore = auditMemory.New()
	}

	redisClient, err := platformRedis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}

	inbox := make(chan audit.Event, 256)
	publisher := audit.NewChannelPublisher(inbox)

	registrySvc, err := registryService.New(entities,
		registryService.WithLogger(log),
		registryService.WithAuditPublisher(publisher),
	)
	if err != nil {
		fatal(log, "registry service", err)
	}

	govSvc, err := governanceService.New(registrySvc, proposals, govParams,
		governanceService.Config{
			ProposalTTL:      protocol.ProposalTTL,
			ElectionPeriod:   protocol.ElectionPeriod,
			SenateQuorum:     protocol.SenateQuorum,
			MaxGovernanceFee: protocol.MaxGovernanceFee,
		},
		governanceService.WithLogger(log),
		governanceService.WithAuditPublisher(publisher),
		governanceService.WithMetrics(governanceMetrics.New()),
	)
	if err != nil {
		fatal(log, "governance service", err)
	}

	// External collaborators. The in-process fakes stand in until the chain
	// adapters are deployed alongside.
	var (
		ledger external.TokenLedger       = fake.NewTokenLedger()
		hasher external.DepositDataHasher = fake.NewDepositDataHasher()
	)

	maintSvc, err := maintainerService.New(registrySvc, ledger, hasher,
		maintainerService.Config{
			MaxMaintainerFee: protocol.MaxMaintainerFee,
			FeeSwitchDelay:   protocol.FeeSwitchDelay,
		},
		maintainerService.WithLogger(log),
		maintainerService.WithAuditPublisher(publisher),
	)
	if err != nil {
		fatal(log, "maintainer service", err)
	}

	oracleOpts := []oracleService.Option{
		oracleService.WithLogger(log),
		oracleService.WithAuditPublisher(publisher),
		oracleService.WithMetrics(oracleMetrics.New()),
	}
	if redisClient != nil {
		oracleOpts = append(oracleOpts, oracleService.WithPriceCache(oracleStore.NewRedisPriceCache(redisClient.Client)))
	}
	oracleSvc, err := oracleService.New(oraclePrices, oracleParams, registrySvc, govSvc, ledger,
		oracleService.Config{
			OraclePeriod:    protocol.OraclePeriod,
			BootstrapPeriod: protocol.BootstrapPeriod,
		},
		oracleOpts...,
	)
	if err != nil {
		fatal(log, "oracle service", err)
	}

	if err := bootstrap(context.Background(), log, govSvc, oracleSvc, protocol); err != nil {
		fatal(log, "bootstrap", err)
	}

	checks := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	if db != nil {
		checks["postgres"] = dbHealth{db}
	}

	router := httptransport.NewRouter(
		httptransport.Config{
			Logger:          log,
			Guard:           guard.New(),
			CallerValidator: middleware.NewJWTCallerValidator(cfg.JWTSigningKey),
			Checks:          checks,
		},
		registryHandler.New(registrySvc, log),
		governanceHandler.New(govSvc, log),
		maintainerHandler.New(maintSvc, log),
		oracleHandler.New(oracleSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	worker := auditWorker.NewWorker(auditStore, inbox)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}

// bootstrap seeds the governance and oracle singletons from the environment.
// Both seeds are idempotent; without the env the server still serves, but
// mutations fail until governance is bootstrapped.
func bootstrap(ctx context.Context, log *slog.Logger, govSvc *governanceService.Service, oracleSvc *oracleService.Service, protocol config.Protocol) error {
	governanceAddr := os.Getenv("STAKEPORT_GOVERNANCE_ADDRESS")
	if governanceAddr == "" {
		log.Warn("STAKEPORT_GOVERNANCE_ADDRESS not set, skipping bootstrap")
		return nil
	}
	governance, err := domain.ParseAddress(governanceAddr)
	if err != nil {
		return err
	}

	senateName := os.Getenv("STAKEPORT_SENATE_NAME")
	if senateName == "" {
		senateName = "senate"
	}
	senateController := governance
	if raw := os.Getenv("STAKEPORT_SENATE_CONTROLLER"); raw != "" {
		if senateController, err = domain.ParseAddress(raw); err != nil {
			return err
		}
	}
	if err := govSvc.Bootstrap(ctx, governance, senateName, senateController); err != nil {
		return err
	}

	oraclePosition := governance
	if raw := os.Getenv("STAKEPORT_ORACLE_POSITION"); raw != "" {
		if oraclePosition, err = domain.ParseAddress(raw); err != nil {
			return err
		}
	}
	return oracleSvc.Bootstrap(ctx, &oracleModels.OracleParams{
		OraclePosition:              oraclePosition,
		PeriodPriceIncreaseLimit:    protocol.PeriodPriceIncreaseLimit,
		PeriodPriceDecreaseLimit:    protocol.PeriodPriceDecreaseLimit,
		BootstrapPriceIncreaseLimit: protocol.BootstrapPriceIncreaseLimit,
		BootstrapPriceDecreaseLimit: protocol.BootstrapPriceDecreaseLimit,
		MonopolyThreshold:           protocol.MonopolyThreshold,
		PeriodSeconds:               int64(protocol.OraclePeriod / time.Second),
	})
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func fatal(log *slog.Logger, what string, err error) {
	log.Error(what+" init failed", "error", err.Error())
	os.Exit(1)
}
