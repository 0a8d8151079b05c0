package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cellpeak/internal/config"
	apierrors "cellpeak/internal/errors"
	"cellpeak/internal/infrastructure"
	customMiddleware "cellpeak/internal/middleware"
	"cellpeak/internal/pipeline"
	"cellpeak/internal/services"
	handlers "cellpeak/internal/transport/http"
)

// BuildTime is set at link time with -ldflags "-X cellpeak/internal/app.BuildTime=..."
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.AnalysisMetrics
	ErrorHandler    *apierrors.ErrorHandler
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
}

// NewApplication wires the services, router and server for cfg.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewAnalysisMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	opts, err := pipeline.OptionsFromConfig(a.Config)
	if err != nil {
		return err
	}

	analysis, err := services.NewAnalysisService(opts, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.AnalysisService = analysis
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, a.Config.Output.Dir, a.Logger)
	return nil
}

// setupRouter builds the chi router. Middleware order: RequestID, OTel,
// logger, recoverer, security headers, rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, a.Logger, a.ErrorHandler, a.Config.Server.MaxUploadBytes)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Route("/v1", func(r chi.Router) {
			if a.Config.Server.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(
					a.Config.Server.RateLimit.RPS,
					a.Config.Server.RateLimit.Burst,
					a.Logger,
				).Handler)
			}
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
			r.Use(customMiddleware.MaxBodySize(a.Config.Server.MaxUploadBytes))
			r.Mount("/", analysisHandler.Routes())
		})
	})

	if a.OTelProviders.MetricsHandler != nil {
		r.Handle("/metrics", a.OTelProviders.MetricsHandler)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve accepts connections on ln until the server is stopped. It returns
// nil after a graceful Stop.
func (a *Application) Serve(ln net.Listener) error {
	a.Logger.Info("Server listening", slog.String("address", ln.Addr().String()))
	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves on the configured port until ctx is cancelled or SIGINT or
// SIGTERM arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	}

	if err := a.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
