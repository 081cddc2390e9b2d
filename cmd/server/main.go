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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/quote-intake/pkg/quoteintake"
	"github.com/tendant/quote-intake/pkg/quoteintake/api"
	"github.com/tendant/quote-intake/pkg/quoteintake/config"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	svc, cleanup, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           NewRouter(svc, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("quote intake server starting", cfg.Describe()...)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

// buildService wires the configured collaborators into a Service. The
// returned cleanup closes connections opened here.
func buildService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*quoteintake.Service, func(), error) {
	cleanup := func() {}

	store, err := cfg.ObjectStore(ctx)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create object store: %w", err)
	}

	opts := []quoteintake.Option{
		quoteintake.WithSettings(cfg.Settings()),
		quoteintake.WithLogger(logger),
	}
	if store != nil {
		opts = append(opts, quoteintake.WithObjectStore(store))
	}
	if sender := cfg.EmailSender(); sender != nil {
		opts = append(opts, quoteintake.WithEmailSender(sender))
	}

	scanner, err := cfg.Scanner()
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create scanner: %w", err)
	}
	if scanner != nil {
		opts = append(opts, quoteintake.WithScanner(scanner))
	}

	sink, err := cfg.EventSink()
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to connect event sink: %w", err)
	}
	if sink != nil {
		opts = append(opts, quoteintake.WithEventSink(sink))
		cleanup = func() {
			if err := sink.Close(); err != nil {
				logger.Warn("failed to close event sink", "error", err)
			}
		}
	}

	svc, err := quoteintake.New(opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, cleanup, nil
}

// NewRouter sets up the HTTP routes
func NewRouter(svc *quoteintake.Service, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(api.Metrics)

	// CORS for development. Headers only: OPTIONS still reaches the handlers,
	// which answer it like any other method.
	if cfg.IsDevelopment() {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "POST")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "healthy", "environment": cfg.Environment})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/", api.NewHandler(svc, logger).Routes())

	return r
}
