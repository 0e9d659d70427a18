// cmd/service/main.go
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

	"github.com/jonboulle/clockwork"

	"portfolio-stats/internal/api"
	"portfolio-stats/internal/cache"
	"portfolio-stats/internal/config"
	"portfolio-stats/internal/github"
	"portfolio-stats/internal/portfolio"
	"portfolio-stats/internal/refresher"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "account", cfg.GithubAccount)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize application components
	svc, err := newService(cfg, clockwork.NewRealClock(), logger)
	if err != nil {
		return err
	}

	// 5. Keep the cache warm in the background if requested
	if cfg.RefreshInterval > 0 {
		go refresher.NewRefresher(svc, logger, cfg.RefreshInterval).Start(ctx)
	}

	// 6. Serve the API until a shutdown signal arrives
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// newService wires the response cache, the GitHub client and the portfolio
// service together. The cache lives exactly as long as the returned service.
func newService(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*portfolio.Service, error) {
	responses := cache.New(cfg.CacheTTL, clock)

	ghClient := github.NewClient(cfg.GithubAccount, cfg.GithubToken, responses, logger)
	ghClient.SetUserAgent(cfg.UserAgent)
	if err := ghClient.WithBaseURL(cfg.GithubAPIBaseURL); err != nil {
		return nil, err
	}

	return portfolio.NewService(ghClient, logger, portfolio.Options{
		Featured:         cfg.FeaturedRepos,
		FeaturedLimit:    cfg.FeaturedLimit,
		FallbackLanguage: cfg.FallbackLanguage,
	}), nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
