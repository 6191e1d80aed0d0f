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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"licensekeys/internal/config"
	apierrors "licensekeys/internal/errors"
	"licensekeys/internal/infrastructure"
	"licensekeys/internal/license"
	customMiddleware "licensekeys/internal/middleware"
	"licensekeys/internal/services"
	handlers "licensekeys/internal/transport/http"
	"licensekeys/pkg/contracts"
)

// AppName identifies the server in logs and telemetry.
const AppName = "license-server"

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Keys           *license.KeyPair
	LicenseManager *license.Manager
	LicenseService services.LicenseService
	HealthService  *services.HealthService
	ErrorHandler   *apierrors.ErrorHandler
	Metrics        *infrastructure.BusinessMetrics
	OTelProviders  *infrastructure.OTelProviders
	Logger         *slog.Logger
}

// NewApplication loads configuration from the environment, initializes the
// process-wide logger and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds an application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices loads the key pair and wires the service layer
func (a *Application) initializeServices() error {
	keys, err := license.LoadKeyPair(a.Config.Keys.PrivateKey, a.Config.Keys.PublicKey)
	if err != nil {
		return err
	}
	a.Keys = keys

	hasPrivate, hasPublic := a.Config.Keys.HasPrivateKey(), a.Config.Keys.HasPublicKey()
	switch {
	case !hasPrivate && !hasPublic:
		a.Logger.Warn("No license keys configured; issuance and validation are disabled")
	case !hasPrivate:
		a.Logger.Warn("Private key not configured; license issuance is disabled")
	case !hasPublic:
		a.Logger.Warn("Public key not configured; license validation is disabled")
	case !keys.Matches():
		a.Logger.Warn("Configured private and public keys do not belong together; issued keys will not validate")
	}

	a.LicenseManager = license.NewManager(keys)
	a.LicenseService = services.NewLicenseService(a.LicenseManager, a.OTelProviders.Tracer, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(contracts.GetVersionInfo(), a.LicenseService, a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Level == "debug")

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Order: RequestID → RealIP → Logger → Recoverer → OTel → headers → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)
	licenseHandler := handlers.NewLicenseHandler(a.LicenseService, validation, a.ErrorHandler, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		licenseHandler.RegisterLegacyRoutes(r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/license", licenseHandler.Routes())
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve accepts connections on l until ctx is cancelled, then shuts the
// server down gracefully.
func (a *Application) Serve(ctx context.Context, l net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening",
			slog.String("address", l.Addr().String()),
			slog.Bool("can_issue", a.LicenseManager.CanIssue()),
			slog.Bool("can_validate", a.LicenseManager.CanValidate()))

		if err := a.Server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run listens on the configured port and serves until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Serve(ctx, l)
}
