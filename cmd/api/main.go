package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/ticketledger/ticket-ledger/internal/api/http"
	"github.com/ticketledger/ticket-ledger/internal/api/http/handlers"
	"github.com/ticketledger/ticket-ledger/internal/auth"
	"github.com/ticketledger/ticket-ledger/internal/config"
	"github.com/ticketledger/ticket-ledger/internal/contract"
	"github.com/ticketledger/ticket-ledger/internal/events"
	"github.com/ticketledger/ticket-ledger/internal/ledger"
	"github.com/ticketledger/ticket-ledger/internal/observability"
	"github.com/ticketledger/ticket-ledger/internal/persistence"
	"github.com/ticketledger/ticket-ledger/internal/repository"
	"github.com/ticketledger/ticket-ledger/internal/service"
	"github.com/ticketledger/ticket-ledger/internal/worker"
)

func main() {
	flags := pflag.NewFlagSet("ticket-ledger-api", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the environment")
	addr := flags.String("addr", "", "listen address, overrides APP_HOST and APP_PORT")
	genesisFile := flags.String("genesis", "", "genesis YAML file, overrides LEDGER_GENESIS_FILE")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parse flags: %v", err)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *genesisFile != "" {
		cfg.Ledger.GenesisFile = *genesisFile
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	genesis := ledger.DevnetGenesis()
	if cfg.Ledger.GenesisFile != "" {
		genesis, err = ledger.LoadGenesis(cfg.Ledger.GenesisFile)
		if err != nil {
			logger.Fatal("failed to load genesis", zap.Error(err))
		}
	}

	readiness := map[string]handlers.Pinger{}
	store := repository.NewMemoryStore()
	history := repository.NewMemoryTicketHistoryRepository()
	if cfg.Store.Backend == config.StoreBackendPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		history = repository.NewTicketHistoryRepository(pg.PoolHandle())
		readiness["postgres"] = pg
	}

	if cfg.Redis.Enabled {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		store.Tickets = repository.NewCachedTicketRepository(store.Tickets, redis.Client, redis.Namespace("ticket"), cfg.Redis.CacheTTL(), logger)
		readiness["redis"] = redis
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	chain, err := ledger.NewChain(ledger.Options{
		Genesis:    genesis,
		State:      store.Tx,
		Dispatcher: dispatcher,
		Observer:   metrics,
		Logger:     logger.Named("ledger"),
	})
	if err != nil {
		logger.Fatal("failed to start chain", zap.Error(err))
	}
	deployer, _ := chain.Account(ledger.DeployerAccount)
	ticketSystem := contract.NewTicketSystem(store, contract.Options{StaffOnlyStatusUpdates: cfg.Ledger.StaffOnlyStatusUpdates})
	if err := chain.Deploy(cfg.Ledger.ContractName, deployer.Address, ticketSystem); err != nil {
		logger.Fatal("failed to deploy contract", zap.Error(err))
	}

	worker.StartHistoryIndexer(service.NewHistoryIndexer(dispatcher, history, logger))
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{Genesis: genesis, Accounts: chain})
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), chain)
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		Chain:        chain,
		ContractName: cfg.Ledger.ContractName,
		HistoryRepo:  history,
	})

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, chain.Height, readiness),
		Auth:           handlers.NewAuthHandler(authService),
		Ledger:         handlers.NewLedgerHandler(ledgerService),
		Tickets:        handlers.NewTicketsHandler(ledgerService),
		Staff:          handlers.NewStaffHandler(ledgerService),
		Metrics:        handlers.NewMetricsHandler(metrics, chain.Height),
		AuthMiddleware: authMiddleware,
	})

	listenAddr := cfg.App.Addr()
	if *addr != "" {
		listenAddr = *addr
	}
	logger.Info("starting ticket ledger",
		zap.String("addr", listenAddr),
		zap.String("store", cfg.Store.Backend),
		zap.String("contract", cfg.Ledger.ContractName),
		zap.String("deployer", string(deployer.Address)))

	go func() {
		if err := app.Listen(listenAddr); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
