package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/event-horizon/internal/app"
	"github.com/cimillas/event-horizon/internal/auth"
	"github.com/cimillas/event-horizon/internal/clock"
	"github.com/cimillas/event-horizon/internal/config"
	"github.com/cimillas/event-horizon/internal/platform/otel"
	"github.com/cimillas/event-horizon/internal/storage/postgres"
	"github.com/cimillas/event-horizon/internal/storage/sqlite"
	transporthttp "github.com/cimillas/event-horizon/internal/transport/http"
	"github.com/cimillas/event-horizon/migrations"
)

const serviceName = "event-horizon-api"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	logger = newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

type storage struct {
	events        app.EventRepository
	registrations app.RegistrationRepository
	health        transporthttp.Pinger
	close         func()
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return storage{}, err
		}
		return storage{
			events:        sqlite.NewEventRepository(db),
			registrations: sqlite.NewRegistrationRepository(db),
			health:        db,
			close:         func() { _ = db.Close() },
		}, nil
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return storage{}, fmt.Errorf("connect to db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return storage{}, fmt.Errorf("db ping: %w", err)
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return storage{}, fmt.Errorf("apply migrations: %w", err)
		}
		return storage{
			events:        postgres.NewEventRepository(pool),
			registrations: postgres.NewRegistrationRepository(pool),
			health:        pool,
			close:         pool.Close,
		}, nil
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracing, err := otel.Setup(startupCtx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	store, err := openStorage(startupCtx, cfg)
	if err != nil {
		return err
	}
	defer store.close()
	logger.Info("storage ready", "driver", cfg.StorageDriver)

	verifier, err := auth.NewVerifier(auth.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}

	clk := clock.NewSystem()
	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Events:        app.NewEventService(store.events, clk),
		Registrations: app.NewRegistrationService(store.registrations, clk),
		Verifier:      verifier,
		Health:        store.health,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("api listening", "addr", server.Addr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
