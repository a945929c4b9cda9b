package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"aqdash/internal/config"
	"aqdash/internal/dataset"
	apierrors "aqdash/internal/errors"
	"aqdash/internal/exporter"
	"aqdash/internal/infrastructure"
	custommw "aqdash/internal/middleware"
	"aqdash/internal/services"
	handlers "aqdash/internal/transport/http"
	ws "aqdash/internal/websocket"
)

// Version and BuildTime are injected at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = ""
)

// Application is the dependency container for the dashboard server.
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Store   *services.Store
	Hub     *ws.Hub
	Logger  *slog.Logger
	Metrics *infrastructure.MetricsProviders

	dashboardService *services.DashboardService
	healthService    *services.HealthService
	metricsMW        *custommw.MetricsMiddleware
	runtimeCollector *infrastructure.RuntimeCollector
	errorHandler     *apierrors.ErrorHandler
}

// NewApplication loads configuration, initializes logging, and wires all
// services together. The returned application is ready to Run.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return newApplication(cfg, logger)
}

// newApplication wires the application from an already-resolved
// configuration and logger. Tests use it to inject both.
func newApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version))

	providers, err := infrastructure.InitializeMetrics(infrastructure.DefaultMetricsConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: providers,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the loader, store, hub, and services in
// dependency order.
func (a *Application) initializeServices() error {
	metricsMW, err := custommw.NewMetricsMiddleware(a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	a.metricsMW = metricsMW

	collector, err := infrastructure.NewRuntimeCollector(a.Metrics.Meter, 15*time.Second)
	if err != nil {
		return fmt.Errorf("failed to create runtime collector: %w", err)
	}
	a.runtimeCollector = collector

	client := &http.Client{Timeout: config.DefaultHTTPTimeout}
	loader := dataset.NewLoader(client, a.Logger)

	store, err := services.NewStore(
		loader,
		dataset.DefaultRegistry(),
		services.StoreConfig{
			DatasetsDir: a.Config.GetDatasetsDir(),
			BaseURL:     a.Config.Datasets.BaseURL,
		},
		metricsMW.Metrics(),
		a.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset store: %w", err)
	}
	a.Store = store

	hub := ws.NewHub(a.Logger, metricsMW.Metrics())
	hub.Start()
	a.Hub = hub

	a.dashboardService = services.NewDashboardService(store, a.Logger)
	a.healthService = services.NewHealthService(Version, BuildTime, store, hub, a.Logger)
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// These are safe for WebSocket because they don't wrap the
	// ResponseWriter.
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	// WebSocket upgrade must bypass the wrapping middleware below.
	r.Get(config.WebSocketEndpoint, a.handleWebSocket)

	// Prometheus scrape endpoint stays outside the middleware group.
	if a.Metrics.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.Metrics.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.metricsMW.Handler)
		r.Use(custommw.DashboardMetricsMiddleware(a.metricsMW.Metrics()))
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
		r.Use(custommw.DefaultSecureHeaders().Handler)
		r.Use(custommw.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes mounts the JSON API under /api.
func (a *Application) setupAPIRoutes(r chi.Router) {
	paths, err := config.GetPaths()
	if err != nil {
		// Exports fall back to streaming-only when paths can't resolve.
		a.Logger.Error("failed to resolve paths", slog.String("error", err.Error()))
	}

	healthHandler := handlers.NewHealthHandler(a.healthService)
	dashboardHandler := handlers.NewDashboardHandler(
		a.dashboardService,
		a.Store,
		exporter.New(paths, a.Logger),
		a.Hub,
		a.Logger,
		a.errorHandler,
	)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.ReadTimeout, a.Logger))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/dashboard", dashboardHandler.Routes())
	})
}

// corsConfig builds the CORS policy from configuration.
func (a *Application) corsConfig() custommw.CORSConfig {
	cfg := custommw.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
	if a.Config.Security.EnableCORS {
		cfg.AllowedOrigins = a.Config.Security.AllowedOrigins
	}
	return cfg
}

// createServer creates the HTTP server.
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

// handleWebSocket upgrades the connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := ws.ServeWS(a.Hub, w, r, a.Logger); err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
	}
}

// Start loads the initial dataset snapshot and starts the HTTP server.
// A dataset that fails to load leaves the server running in a degraded
// state; health reports the failure per dataset.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	loadCtx, loadCancel := context.WithTimeout(ctx, a.Config.Datasets.LoadTimeout)
	defer loadCancel()

	if err := a.Store.Load(loadCtx); err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}
	if !a.Store.Ready() {
		a.Logger.WarnContext(ctx, "starting degraded, some datasets failed to load")
	}

	a.runtimeCollector.Start(ctx)

	go func() {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Hub.Stop()
	a.runtimeCollector.Stop()

	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down metrics",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
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
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
