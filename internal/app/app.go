// Package app wires the configuration, services, and HTTP transport into a
// runnable application with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bockybocky/charles-bond-sniper/internal/config"
	apierrors "github.com/bockybocky/charles-bond-sniper/internal/errors"
	"github.com/bockybocky/charles-bond-sniper/internal/infrastructure"
	custommiddleware "github.com/bockybocky/charles-bond-sniper/internal/middleware"
	"github.com/bockybocky/charles-bond-sniper/internal/services"
	transporthttp "github.com/bockybocky/charles-bond-sniper/internal/transport/http"
	"github.com/bockybocky/charles-bond-sniper/pkg/contracts"
)

// Application holds the assembled components of the running service.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Server *http.Server

	scanService *services.ScanService
}

// NewApplication loads configuration, initializes logging, and builds the
// service and HTTP layers.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		scanService: services.NewScanService(cfg, logger),
	}
	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

// router assembles the middleware chain and mounts the route groups.
func (a *Application) router() chi.Router {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(a.Logger))
	r.Use(custommiddleware.Recoverer(a.Logger))

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	scanHandler := transporthttp.NewScanHandler(
		a.scanService, a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)
	healthHandler := transporthttp.NewHealthHandler(a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RateLimit(
				a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst))
			r.Mount("/scan", scanHandler.Routes())
		})

		r.Mount("/health", healthHandler.Routes())
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP server and blocks until the process receives an
// interrupt or the server fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting",
			slog.String("addr", a.Server.Addr),
			slog.String("version", contracts.Version))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	return a.Stop(context.Background())
}

// Stop shuts the server down within the configured timeout.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		return err
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return err
	}
	a.Logger.Info("server stopped")
	return nil
}
