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

	"github.com/vibestempel/stempeld/internal/stempel/bus"
	httpapi "github.com/vibestempel/stempeld/internal/stempel/http"
	"github.com/vibestempel/stempeld/internal/stempel/service"
	"github.com/vibestempel/stempeld/internal/stempel/store"
	"github.com/vibestempel/stempeld/internal/stempel/store/drivers/sqlite"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	tokenIssuer = "stempeld"
)

// Application encapsulates the check-in service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db  store.Store
	bus *bus.Bus

	// Services
	identityService *service.IdentityService
	checkinService  *service.CheckinService
	eventService    *service.EventService
	adminService    *service.AdminService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "stempeld",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.bus = bus.New(app.db, app.logger)

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.bus.Start()

	app.logger.Info("stempeld starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down stempeld...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server first so live connections drain before the
	// bus stops feeding them
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.bus.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("stempeld stopped")
	return nil
}

// Handler exposes the configured router for in-process test servers.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Bus exposes the change bus for in-process test servers.
func (app *Application) Bus() *bus.Bus {
	return app.bus
}

// Store exposes the backing store for in-process test servers.
func (app *Application) Store() store.Store {
	return app.db
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(fmt.Sprintf("file:%s", app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	if app.cfg.AdminSecretHash == "" && app.cfg.AdminSecret == "admin123" {
		app.logger.Warn("admin secret is the built-in default; set STEMPEL_ADMIN_SECRET or STEMPEL_ADMIN_SECRET_HASH")
	}

	adminService, err := service.NewAdminService(
		app.cfg.AdminSecret,
		app.cfg.AdminSecretHash,
		tokenIssuer,
		app.cfg.AdminSessionTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize admin service: %w", err)
	}
	app.adminService = adminService

	app.identityService = &service.IdentityService{Store: app.db}
	app.checkinService = &service.CheckinService{
		Store:    app.db,
		Bus:      app.bus,
		Identity: app.identityService,
	}
	app.eventService = &service.EventService{Store: app.db}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.bus,
		app.logger,
	)

	// Wire services to router
	router.IdentityService = app.identityService
	router.CheckinService = app.checkinService
	router.EventService = app.eventService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
