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

	"autoblog/internal/ai"
	"autoblog/internal/auth"
	"autoblog/internal/config"
	"autoblog/internal/infrastructure"
	"autoblog/internal/license"
	customMiddleware "autoblog/internal/middleware"
	"autoblog/internal/security"
	"autoblog/internal/services"
	"autoblog/internal/session"
	"autoblog/internal/store"
	handlers "autoblog/internal/transport/http"
	"autoblog/internal/wordpress"
)

const (
	// Version is the build version reported by /api/version and sent to
	// the sales platform during activation
	Version = "1.0.0"
	AppName = "AutoBlog Pro"
)

// Application is the dependency container. Everything is wired once at
// startup and torn down in Stop.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	OTelProviders *infrastructure.OTelProviders

	Store    *store.Store
	Sessions *session.Manager

	Credentials *auth.CredentialStore
	License     *license.Service
	Blog        *services.BlogService
	Health      *services.HealthService
}

// NewApplication loads configuration and wires the full dependency
// graph: logger, telemetry, database, services, router, server.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices opens the database and builds the service graph
func (a *Application) initializeServices(ctx context.Context) error {
	st, err := store.Open(ctx, a.Config.DatabasePath(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = st

	a.Sessions = session.NewManager(a.Config.Session.TTL, a.Logger)
	a.Credentials = auth.NewCredentialStore(st.Users, a.Logger)

	fingerprint := security.NewFingerprintGenerator(a.Logger)
	activationClient := license.NewActivationClient(
		a.Config.License.SalesPlatformURL,
		a.Config.License.ClientVersion,
		a.Config.License.RequestTimeout,
		a.Logger,
	)
	a.License = license.NewService(st.Licenses, fingerprint, activationClient, a.Logger)

	aiClient := ai.NewClient(
		a.Config.AI.BaseURL,
		a.Config.AI.AnalyzeModel,
		a.Config.AI.GenerateModel,
		a.Config.AI.RequestTimeout,
		a.Logger,
	)
	wpClient := wordpress.NewClient(a.Config.WordPress.RequestTimeout, a.Logger)
	a.Blog = services.NewBlogService(st.Settings, st.Posts, st.History, aiClient, wpClient, a.Logger)

	a.Health = services.NewHealthService(Version, st)

	return nil
}

// setupRouter assembles the middleware chain and all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	validator := customMiddleware.NewValidator()
	authenticator := customMiddleware.NewAuthenticator(a.Sessions, a.Logger)

	authHandler := handlers.NewAuthHandler(a.Credentials, a.Sessions, validator, a.Logger)
	licenseHandler := handlers.NewLicenseHandler(a.License, validator, a.Logger)
	settingsHandler := handlers.NewSettingsHandler(a.Blog, validator, a.Logger)
	blogHandler := handlers.NewBlogHandler(a.Blog, validator, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Public surface: everything the client needs before it has a
		// session, plus the embeddable widget feed.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			r.Get("/health", healthHandler.Health)
			r.Get("/version", healthHandler.Version)

			r.Get("/setup/status", authHandler.SetupStatus)
			r.Post("/setup", authHandler.Setup)
			r.Post("/login", authHandler.Login)

			r.Mount("/license", licenseHandler.Routes())

			r.Get("/widget/posts", blogHandler.WidgetPosts)
		})

		// Session-gated surface
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))
			r.Use(authenticator.Handler)

			r.Post("/logout", authHandler.Logout)

			r.Get("/settings", settingsHandler.Get)
			r.Post("/settings", settingsHandler.Save)

			r.Mount("/posts", blogHandler.PostRoutes())
			r.Get("/generation-history", blogHandler.GenerationHistory)
		})

		// Generation calls wait on the language model and get a longer
		// timeout than the rest of the API.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.GenerateTimeout, a.Logger))
			r.Use(authenticator.Handler)

			r.Post("/analyze-website", blogHandler.AnalyzeWebsite)
			r.Post("/generate-post", blogHandler.GeneratePost)
		})
	})

	if a.OTelProviders != nil && a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	// The widget feed is embedded on arbitrary sites; everything else is
	// consumed by the local desktop shell.
	origins := a.Config.Security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server bound to loopback
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf("127.0.0.1:%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start begins serving. The cancel func is invoked when the listener
// fails so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "server listening",
		slog.String("addr", a.Server.Addr))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop shuts the application down gracefully
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "store close error", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return err
	}

	a.Logger.Info("shutdown complete")
	return nil
}

// Run serves until interrupted, then shuts down gracefully
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
