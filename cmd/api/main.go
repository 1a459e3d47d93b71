package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lockerhub/lockerhub-backend/api/routes"
	"github.com/lockerhub/lockerhub-backend/internal/admins"
	"github.com/lockerhub/lockerhub-backend/internal/applications"
	"github.com/lockerhub/lockerhub-backend/internal/auth"
	"github.com/lockerhub/lockerhub-backend/internal/dashboard"
	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/lockers"
	"github.com/lockerhub/lockerhub-backend/internal/reminders"
	"github.com/lockerhub/lockerhub-backend/internal/stores"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	"github.com/lockerhub/lockerhub-backend/pkg/auth/session"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/instance"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
	"github.com/lockerhub/lockerhub-backend/pkg/migrate"
	"github.com/lockerhub/lockerhub-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessionManager *session.Manager) (routes.Deps, error) {
	conn := dbClient.DB()
	workflowMetrics := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	storeRepo := stores.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	adminRepo := admins.NewRepository(conn)
	lockerRepo := lockers.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	applicationRepo := applications.NewRepository(conn)
	reminderRepo := reminders.NewRepository(conn)
	assigner := lockers.NewAssigner(lockerRepo, ledgerRepo)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		AdminRepo:      adminRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Users:          userRepo,
		Stores:         storeRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	storeService, err := stores.NewService(storeRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	userService, err := users.NewService(userRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	adminService, err := admins.NewService(adminRepo, storeRepo, cfg.Password, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	lockerService, err := lockers.NewService(lockers.ServiceParams{
		Tx:       dbClient,
		Lockers:  lockerRepo,
		Ledger:   ledgerRepo,
		Users:    userRepo,
		Stores:   storeRepo,
		Metrics:  workflowMetrics,
		Logger:   logg,
		Assigner: assigner,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	applicationService, err := applications.NewService(applications.ServiceParams{
		Tx:           dbClient,
		Applications: applicationRepo,
		Users:        userRepo,
		Stores:       storeRepo,
		Assigner:     assigner,
		Config:       cfg.Applications,
		Metrics:      workflowMetrics,
		Logger:       logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}
	ledgerService, err := ledger.NewService(ledgerRepo, cfg.Ledger)
	if err != nil {
		return routes.Deps{}, err
	}
	reminderService, err := reminders.NewService(reminderRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	dashboardService, err := dashboard.NewService(lockerRepo, applicationRepo, ledgerRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		DB:           dbClient,
		Redis:        redisClient,
		Sessions:     sessionManager,
		Gatherer:     prometheus.DefaultGatherer,
		HTTP:         metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Auth:         authService,
		Register:     registerService,
		Stores:       storeService,
		Users:        userService,
		Admins:       adminService,
		Lockers:      lockerService,
		Applications: applicationService,
		Ledger:       ledgerService,
		Reminders:    reminderService,
		Dashboard:    dashboardService,
	}, nil
}
