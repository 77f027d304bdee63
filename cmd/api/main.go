package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/portyard/port-ticket-service/internal/api/http"
	"github.com/portyard/port-ticket-service/internal/api/http/handlers"
	"github.com/portyard/port-ticket-service/internal/auth"
	"github.com/portyard/port-ticket-service/internal/clock"
	"github.com/portyard/port-ticket-service/internal/config"
	"github.com/portyard/port-ticket-service/internal/events"
	"github.com/portyard/port-ticket-service/internal/observability"
	"github.com/portyard/port-ticket-service/internal/persistence"
	"github.com/portyard/port-ticket-service/internal/repository"
	"github.com/portyard/port-ticket-service/internal/service"
	"github.com/portyard/port-ticket-service/internal/simulator"
	"github.com/portyard/port-ticket-service/internal/upstream"
	"github.com/portyard/port-ticket-service/internal/worker"
)

const (
	notificationTTL = 30 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "api",
		Short:        "Port terminal ticket service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context())
		},
	})

	var seedFile string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load demo roles, users, zones, ships and containers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seedDatabase(cmd.Context(), seedFile)
		},
	}
	seed.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture path (defaults to SEED_FILE or the embedded fixture)")
	cmd.AddCommand(seed)
	return cmd
}

type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func bootstrap(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &environment{cfg: cfg, logger: logger, pg: pg}, nil
}

func (r *environment) close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func migrate(ctx context.Context) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	return persistence.RunMigrations(ctx, rt.pg.PoolHandle(), rt.logger)
}

func seedDatabase(ctx context.Context, file string) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if file == "" {
		file = rt.cfg.Seed.File
	}
	fixture, err := persistence.LoadFixture(file)
	if err != nil {
		return err
	}
	if err := persistence.RunMigrations(ctx, rt.pg.PoolHandle(), rt.logger); err != nil {
		return err
	}
	return persistence.Seed(ctx, rt.pg.PoolHandle(), fixture, rt.cfg.Auth.BcryptCost, rt.logger)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger
	pool := rt.pg.PoolHandle()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, cfg.App.Name, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dependencies := []handlers.Dependency{
		{Name: "postgres", Pinger: rt.pg},
		{Name: "redis", Pinger: redis},
	}

	var (
		registry   repository.Registry
		transactor repository.Transactor
	)
	switch cfg.App.DataSource {
	case config.DataSourceUpstream:
		client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout(), logger)
		registry = upstream.NewRegistry(client)
		transactor = repository.NoopTransactor{}
		dependencies = append(dependencies, handlers.Dependency{Name: "upstream", Pinger: client})
	default:
		registry = repository.NewPostgresRegistry(pool)
		transactor = repository.NewTransactor(pool)
	}
	logger.Info("data source selected", zap.String("source", cfg.App.DataSource))

	fleetRepo := repository.NewFleetRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	containerEvents := repository.NewContainerEventRepository(pool)
	notificationRepo := repository.NewNotificationRepository(redis.ClientHandle(), notificationTTL)

	slotLedger, err := service.LoadLedger(ctx, registry.Slots, registry.Tickets, metrics, logger)
	if err != nil {
		return fmt.Errorf("load slot ledger: %w", err)
	}

	clk := clock.NewSystem()
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())

	ticketService := service.NewTicketService(service.TicketDependencies{
		Tickets:         registry.Tickets,
		History:         historyRepo,
		Containers:      registry.Containers,
		ContainerEvents: containerEvents,
		Transactor:      transactor,
		Ledger:          slotLedger,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Clock:           clk,
		Logger:          logger,
	})
	notificationService := service.NewNotificationService(dispatcher, notificationRepo, registry.Users, clk, logger)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(registry.Users, tokens, logger)
	userService := service.NewUserService(registry.Users, cfg.Auth.BcryptCost, logger)
	containerService := service.NewContainerService(registry.Containers, containerEvents, registry.Tickets, registry.Reference, logger)
	fleetService := service.NewFleetService(fleetRepo)
	zoneService := service.NewZoneService(registry.Zones, registry.Reference, slotLedger)
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Tickets:       registry.Tickets,
		Users:         registry.Users,
		Containers:    registry.Containers,
		Fleet:         fleetRepo,
		Notifications: notificationService,
		Ledger:        slotLedger,
	})

	sim := simulator.New(ticketService,
		simulator.WithIntervals(cfg.Simulator.StepInterval(), cfg.Simulator.ClockInterval()),
		simulator.WithLogger(logger),
		simulator.WithStepObserver(metrics.RecordSimulatorStep),
	)
	stopSimulator := func() {}
	if cfg.Simulator.Enabled {
		stopSimulator = worker.StartSimulator(ctx, sim, logger)
	} else if err := sim.Refresh(ctx); err != nil {
		logger.Warn("turn monitor refresh failed", zap.Error(err))
	}
	defer stopSimulator()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies...),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Containers:     handlers.NewContainersHandler(containerService),
		Fleet:          handlers.NewFleetHandler(fleetService),
		Zones:          handlers.NewZonesHandler(zoneService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Monitor:        handlers.NewMonitorHandler(sim),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens, registry.Users),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	stopSimulator()
	return app.ShutdownWithTimeout(shutdownTimeout)
}
