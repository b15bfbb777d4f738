// Package main provides the entry point for the corpus service HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arrestlit/corpus-service/internal/config"
	"github.com/arrestlit/corpus-service/internal/enrich"
	"github.com/arrestlit/corpus-service/internal/observability"
	"github.com/arrestlit/corpus-service/internal/providers/crossref"
	"github.com/arrestlit/corpus-service/internal/providers/pubmed"
	"github.com/arrestlit/corpus-service/internal/resolver"
	httpserver "github.com/arrestlit/corpus-service/internal/server/http"
	"github.com/arrestlit/corpus-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("corpus-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics registry and handler.
	var (
		metrics        *observability.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	// Provider clients.
	registryClient := crossref.New(crossref.Config{
		BaseURL:   cfg.Providers.Crossref.BaseURL,
		Email:     cfg.Providers.Crossref.Email,
		Timeout:   cfg.Providers.Crossref.Timeout,
		RateLimit: cfg.Providers.Crossref.RateLimit,
	})
	biomedicalClient := pubmed.New(pubmed.Config{
		BaseURL:   cfg.Providers.PubMed.BaseURL,
		Tool:      cfg.Providers.PubMed.Tool,
		Email:     cfg.Providers.PubMed.Email,
		APIKey:    cfg.Providers.PubMed.APIKey,
		Timeout:   cfg.Providers.PubMed.Timeout,
		RateLimit: cfg.Providers.PubMed.RateLimit,
	})

	// Pipeline components.
	st := store.New(cfg.Store.RawPath, cfg.Store.NormalizedPath)
	res := resolver.New(registryClient, biomedicalClient, logger, metrics)
	enricher := enrich.New(res, cfg.Enrich.Workers, logger, metrics)

	httpSrv := httpserver.NewServer(
		httpserver.Config{
			Address:         cfg.Server.HTTPAddress(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MetricsPath:     cfg.Metrics.Path,
		},
		st,
		res,
		enricher,
		logger,
		metrics,
		metricsHandler,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().Str("http_address", cfg.Server.HTTPAddress()).Msg("corpus-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down corpus-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("corpus-service shutdown complete")
	return nil
}
