package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carewell-health/clinic-portal/internal/alerts"
	"github.com/carewell-health/clinic-portal/internal/api/router"
	"github.com/carewell-health/clinic-portal/internal/appointments"
	appconfig "github.com/carewell-health/clinic-portal/internal/config"
	"github.com/carewell-health/clinic-portal/internal/events"
	"github.com/carewell-health/clinic-portal/internal/http/handlers"
	"github.com/carewell-health/clinic-portal/internal/interaction"
	"github.com/carewell-health/clinic-portal/internal/notify"
	"github.com/carewell-health/clinic-portal/internal/observability/metrics"
	"github.com/carewell-health/clinic-portal/internal/prediction"
	"github.com/carewell-health/clinic-portal/internal/queue"
	"github.com/carewell-health/clinic-portal/internal/session"
	"github.com/carewell-health/clinic-portal/internal/stream"
	"github.com/carewell-health/clinic-portal/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise (local dev).
	var (
		interactionRepo interaction.Repository
		appointmentRepo appointments.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		interactionRepo = interaction.NewPostgresRepository(pool)
		appointmentRepo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		interactionRepo = interaction.NewInMemoryRepository()
		appointmentRepo = appointments.NewInMemoryRepository()
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	lifecycleMetrics := metrics.NewLifecycleMetrics(nil)
	bus := events.NewBus(logger)
	bus.Subscribe(func(evt events.Envelope) {
		logger.Info("lifecycle event", "type", evt.Type)
	})

	sessionStore := session.NewStore(redisClient, cfg.SessionStorageKey, nil, bus, logger)
	sessionStore.Load(ctx)
	lifecycleMetrics.SetSessionActive(sessionStore.Get() != nil)

	broadcaster := notify.NewBroadcaster(logger)
	notifier := alerts.NewNotifier(broadcaster, broadcaster, logger).
		WithWarningRatio(cfg.WarningRatio).
		WithMetrics(lifecycleMetrics)
	monitor := alerts.NewMonitor(notifier)

	ticker := session.NewTicker(sessionStore, nil, logger).WithInterval(cfg.TimerTickInterval)
	ticker.Subscribe(func(tick session.Tick) {
		broadcaster.Broadcast(notify.Frame{Type: notify.FrameTick, Payload: tick})
		monitor.OnTick(tick)
	})

	var predictor queue.Predictor
	if cfg.PredictionBaseURL != "" {
		predictor = prediction.NewClient(cfg.PredictionBaseURL, cfg.PredictionTimeout, logger)
	}

	refresher := queue.NewRefresher(appointmentRepo, interactionRepo, predictor, nil, logger).
		WithInterval(cfg.QueueRefreshInterval).
		WithMetrics(lifecycleMetrics)

	go ticker.Run(ctx)
	go refresher.Run(ctx)

	r := router.New(&router.Config{
		Logger: logger,
		Interactions: handlers.NewInteractionsHandler(handlers.InteractionsConfig{
			Interactions: interactionRepo,
			Appointments: appointmentRepo,
			Store:        sessionStore,
			Refresher:    refresher,
			Toasts:       broadcaster,
			Metrics:      lifecycleMetrics,
			Logger:       logger,
		}),
		Session: handlers.NewSessionHandler(handlers.SessionConfig{
			Store:        sessionStore,
			Interactions: interactionRepo,
			Appointments: appointmentRepo,
			Predictor:    predictor,
			Metrics:      lifecycleMetrics,
			Logger:       logger,
		}),
		Queue:              handlers.NewQueueHandler(refresher, logger),
		Stream:             stream.NewHandler(broadcaster, logger),
		MetricsHandler:     promhttp.Handler(),
		StaffAuthSecret:    cfg.StaffJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
