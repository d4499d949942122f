package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"oipulse/internal/config"
	"oipulse/internal/dataprocessing"
	"oipulse/internal/errors"
	"oipulse/internal/infrastructure"
	customMiddleware "oipulse/internal/middleware"
	"oipulse/internal/services"
	"oipulse/internal/spotprice"
	"oipulse/internal/storage"
	handlers "oipulse/internal/transport/http"
)

const (
	VERSION = "1.0.0"
	AppName = "OI Pulse - NSE Derivatives Open Interest Analytics"
)

// Application represents the main application container
type Application struct {
	Config            *config.Config
	Router            *chi.Mux
	Server            *http.Server
	Store             storage.TableStore
	SubmissionService *services.SubmissionService
	HealthService     *services.HealthService
	Logger            *slog.Logger
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("storage_backend", cfg.Storage.Backend))

	app := &Application{
		Config: cfg,
		Logger: logger,
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
	ctx := context.Background()

	store, err := storage.New(ctx, a.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Store = store

	// A remote backend gets the local CSV file as write fallback so a
	// computed table survives a remote outage.
	var fallback storage.TableStore
	if a.Config.Storage.Backend == config.BackendSheets {
		fallback = storage.NewCSVStore(a.Config.Storage.CSVPath)
	}

	spotClient := spotprice.New(a.Config.SpotPrice)
	engine := dataprocessing.NewEngine()

	a.SubmissionService = services.NewSubmissionService(engine, store, fallback, spotClient, a.Logger)
	a.HealthService = services.NewHealthService(VERSION, store, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(handlers.MetricsMiddleware)

	errorHandler := errors.NewErrorHandler(a.Logger, false)
	validationMw := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)

	rateLimiter := customMiddleware.NewRateLimiter(
		a.Config.Server.RateLimitRPS, a.Config.Server.RateLimitBurst, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(rateLimiter.Handler)
		r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
		r.Use(validationMw.ValidateRequest)

		submissionHandler := handlers.NewSubmissionHandler(
			a.SubmissionService, a.Logger, errorHandler, a.Config.Server.MaxUploadBytes)
		r.Mount("/submissions", submissionHandler.Routes())

		tableHandler := handlers.NewTableHandler(a.SubmissionService, a.Logger, errorHandler)
		r.Mount("/table", tableHandler.Routes())
		r.Get("/dates", tableHandler.GetDates)
	})

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Mount("/healthz", healthHandler.Routes())

	// Prometheus scrape endpoint outside the middleware group
	r.Handle("/metrics", handlers.MetricsHandler())

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

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

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
