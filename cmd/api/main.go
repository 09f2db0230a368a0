// Package main provides the entrypoint for the transit API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/api"
	"github.com/megannnn98/transport-catalogue/internal/api/handler"
	"github.com/megannnn98/transport-catalogue/internal/api/middleware"
	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/config"
	"github.com/megannnn98/transport-catalogue/internal/database"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
	"github.com/megannnn98/transport-catalogue/internal/snapshot"
	"github.com/megannnn98/transport-catalogue/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "transit-api"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to the YAML configuration file")
	flag.Parse()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting transit API")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	metrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	repo, pool, err := openRepository(ctx, cfg.Snapshot, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	snap, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	cat, err := snap.Restore(catalogue.Config{Logger: log})
	if err != nil {
		return fmt.Errorf("restore catalogue: %w", err)
	}
	log.Info().
		Int("stops", cat.StopCount()).
		Int("buses", cat.BusCount()).
		Msg("catalogue restored")

	settings := cfg.Routing
	if settings == nil {
		settings = snap.Routing
	}
	if settings == nil {
		return errors.New("routing settings are required: set them in the config file or the snapshot")
	}
	rt, err := router.New(router.Config{
		Catalogue: cat,
		Settings:  *settings,
		Logger:    log,
		CacheTTL:  cfg.Cache.RouteTTL,
	})
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}

	var renderer *mapview.Renderer
	if snap.Render != nil {
		renderer, err = mapview.NewRenderer(*snap.Render)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
	} else {
		log.Warn().Msg("snapshot has no render settings - map endpoints are disabled")
	}

	checks := []handler.ReadinessCheck{{
		Name:  "catalogue",
		Check: func(context.Context) error { return nil },
	}}
	if pool != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: pool.Ping})
	}

	mux := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Catalogue:   cat,
		Router:      rt,
		Renderer:    renderer,
		RouteRateLimit: middleware.RateLimitConfig{
			RequestLimit: cfg.Server.RouteRateLimit,
			WindowLength: time.Minute,
		},
		AllowedOrigins:  cfg.Server.CORSOrigins,
		ReadinessChecks: checks,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// openRepository returns the snapshot store chosen by the config. The pool
// is non-nil only for the postgres driver and must be closed by the caller.
func openRepository(ctx context.Context, cfg config.SnapshotConfig, log zerolog.Logger) (snapshot.Repository, *pgxpool.Pool, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		repo := snapshot.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure snapshot schema: %w", err)
		}
		return repo, pool, nil
	default:
		log.Info().Str("file", cfg.File).Msg("using snapshot file")
		return snapshot.NewFileRepository(cfg.File), nil, nil
	}
}
