package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/config-grid-service/internal/config"
	"github.com/maxviazov/config-grid-service/internal/handler"
	"github.com/maxviazov/config-grid-service/internal/logger"
	"github.com/maxviazov/config-grid-service/internal/service"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config loading failed: %w", err)
	}
	if cfg.Logger.ServiceName == "" {
		cfg.Logger.ServiceName = cfg.App.Name
	}
	if cfg.Logger.ServiceVersion == "" {
		cfg.Logger.ServiceVersion = cfg.App.Version
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	appLogger.Info().Str("config", configPath).Msg("config loaded")

	be, err := buildBackend(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("backend initialization failed: %w", err)
	}
	defer be.close()
	appLogger.Info().
		Bool("postgres", cfg.Postgres.Enabled).
		Strs("resources", be.registry.Names()).
		Msg("resources registered")

	if cfg.Logger.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if err := handler.Register(engine, handler.Dependencies{
		Store:              be.pinger,
		Grid:               service.NewListQueryEngine(be.registry, cfg.Grid.MaxPageSize),
		Logger:             appLogger,
		Metrics:            handler.NewMetrics(),
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		RateLimitBurst:     cfg.HTTP.RateLimitBurst,
		ExportMaxRows:      cfg.Grid.ExportMaxRows,
	}); err != nil {
		return fmt.Errorf("route registration failed: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler.WithCORS(engine, cfg.HTTP.CORSAllowedOrigins),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", server.Addr).Msg("🚀 Service started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	appLogger.Info().Msg("server exited")
	return nil
}
