package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/reaport/aircraft/internal/api"
	"github.com/reaport/aircraft/internal/config"
	"github.com/reaport/aircraft/internal/gateway"
	"github.com/reaport/aircraft/internal/kvstore"
	"github.com/reaport/aircraft/internal/repository"
	"github.com/reaport/aircraft/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the aircraft HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(cfg.Log)

	models, err := config.LoadAircraftConfig(cfg.AircraftConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load aircraft catalog: %w", err)
	}
	logger.Info().Strs("models", models.ModelNames()).Msg("aircraft catalog loaded")

	db, err := cfg.InitializeDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := kvstore.NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize key/value store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	repo := repository.NewAircraftRepository(store, models)
	groundControl := gateway.NewGroundControlGateway(gatewayConfig(cfg.GroundControl), logger)
	orchestrator := gateway.NewOrchestratorGateway(gatewayConfig(cfg.Orchestrator), logger)
	svc := service.New(repo, groundControl, orchestrator, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	api.NewAPI(svc, models).RegisterRoutes(r)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("aircraft service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func setupLogging(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.EqualFold(cfg.Format, "json") {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func gatewayConfig(gw config.GatewayConfig) gateway.Config {
	return gateway.Config{
		BaseURL:    gw.URL,
		Timeout:    time.Duration(gw.Timeout) * time.Second,
		MaxRetries: gw.MaxRetries,
	}
}
