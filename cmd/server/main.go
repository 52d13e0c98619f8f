package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deskbook/internal/api"
	"deskbook/internal/config"
	"deskbook/internal/database"
	"deskbook/internal/domain"
	"deskbook/internal/events"
	"deskbook/internal/export"
	"deskbook/internal/logging"
	"deskbook/internal/metrics"
	"deskbook/internal/models"
	"deskbook/internal/schedule"
	"deskbook/internal/service"
	"deskbook/internal/session"
	"deskbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	plan, err := loadFloorPlan(&logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	sessions := buildSessionRepository(redisClient, ttl, &logger)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.App.Timezone).Msg("failed to load timezone, using local")
		loc = time.Local
	}

	eventBus := events.NewEventBus()
	engine := schedule.NewEngine(db, plan, loc, &logger)
	reservations := service.NewReservationService(db, engine, eventBus, &logger)
	identity := service.NewIdentityService(db, sessions, eventBus, cfg.Admin, ttl, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := identity.SeedAdmin(ctx); err != nil {
		logger.Error().Err(err).Msg("seed admin account")
		return err
	}

	auditWorker := worker.NewAuditWorker(db, redisClient, worker.RetryPolicy{}, &logger)
	eventBus.Subscribe(events.EventReservationCreated, auditWorker.HandleEvent)
	eventBus.Subscribe(events.EventReservationCanceled, auditWorker.HandleEvent)
	eventBus.Subscribe(events.EventUserRegistered, auditWorker.HandleEvent)
	go auditWorker.Run(ctx)

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backup.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	exporter := export.NewExporter(cfg.Exports)
	httpServer := api.NewHTTPServer(cfg.API, reservations, identity, exporter, plan, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

func loadFloorPlan(logger *zerolog.Logger) (*models.FloorPlan, error) {
	desksPath := os.Getenv("DESKS_PATH")
	if desksPath == "" {
		desksPath = "configs/desks.yaml"
	}
	data, err := os.ReadFile(desksPath)
	if err != nil {
		logger.Error().Err(err).Str("desks_path", desksPath).Msg("read floor plan")
		return nil, err
	}

	var plan models.FloorPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		logger.Error().Err(err).Str("desks_path", desksPath).Msg("parse floor plan")
		return nil, err
	}

	if err := config.ValidateFloorPlan(&plan); err != nil {
		return nil, fmt.Errorf("floor plan validation failed: %w", err)
	}
	return &plan, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := session.NewRedisClient(cfg.Redis)
	if err := session.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func buildSessionRepository(redisClient *redis.Client, ttl time.Duration, logger *zerolog.Logger) domain.SessionRepository {
	memory := session.NewMemorySessionRepository(ttl)
	if redisClient == nil {
		return memory
	}
	primary := session.NewRedisSessionRepository(redisClient, ttl)
	return session.NewFailoverSessionRepository(primary, memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
