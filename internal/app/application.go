// Package app wires the stores, the presence registry, the fan-out engine and
// the transports into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"campuswire/internal/api"
	"campuswire/internal/audience"
	"campuswire/internal/auth"
	"campuswire/internal/config"
	"campuswire/internal/database"
	"campuswire/internal/directory"
	"campuswire/internal/fanout"
	"campuswire/internal/hub"
	"campuswire/internal/messaging"
	"campuswire/internal/presence"
	"campuswire/internal/websocket"
	"campuswire/pkg/interfaces"
	pkgdatabase "campuswire/pkg/database"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// Application coordinates all system components.
type Application struct {
	config        *config.Config
	logger        *slog.Logger
	dbManager     *database.Manager
	badgerDB      *badger.DB
	notifications interfaces.NotificationStore
	directory     *directory.Cache
	registry      *presence.Registry
	messageHub    *hub.Hub
	gateway       *websocket.Handler
	httpServer    *http.Server
	listener      net.Listener

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates the application with every component initialized.
// Initialization follows dependency order:
// Database → Directory → Registry → Fan-out → Messaging → Hub → Gateway → API → HTTP
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// STEP 1: Initialize database manager (foundation layer); migrations run
	// inside NewManager
	dbConfig := pkgdatabase.DefaultConfig()
	dbConfig.DatabasePath = cfg.Database.Path
	dbConfig.MaxConnections = cfg.Database.MaxConnections
	dbConfig.ConnMaxLifetime = cfg.Database.Timeout
	dbConfig.ConnMaxIdleTime = cfg.Database.Timeout / 3

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database manager: %w", err)
	}
	app := &Application{config: cfg, logger: logger.With(slog.String("component", "app")), dbManager: dbManager}

	// STEP 2: Select the notification backend
	app.notifications = dbManager
	if cfg.Notifications.Backend == config.BackendBadger {
		app.badgerDB, err = database.OpenBadger(cfg.Notifications.BadgerPath)
		if err != nil {
			_ = dbManager.Close()
			return nil, err
		}
		app.notifications = database.NewBadgerNotificationStore(app.badgerDB, cfg.Notifications.Retention, logger)
	}

	// STEP 3: Warm the directory cache so the first lecture-hall burst of
	// handshakes does not hit SQLite
	app.directory = directory.NewCache(dbManager, cfg.Gateway.DirectoryTTL, logger)
	preloadCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	if err := app.directory.Preload(preloadCtx); err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to preload directory: %w", err)
	}

	// STEP 4: Presence registry and fan-out engine
	app.registry = presence.NewRegistry(nil, logger)
	engine := fanout.NewEngine(audience.NewResolver(app.directory), app.registry, app.notifications, cfg.Notifications.BatchSize, logger)

	// STEP 5: Messaging and the inbound event hub
	messenger := messaging.NewService(dbManager, app.directory, engine, app.registry, logger)
	app.messageHub = hub.NewHub(app.registry, messenger, app.directory, hub.Config{
		Workers:    cfg.Gateway.Workers,
		QueueSize:  cfg.Gateway.QueueSize,
		RateLimit:  cfg.Gateway.RateLimit,
		RateWindow: cfg.Gateway.RateWindow,
	}, logger)

	// STEP 6: Connection gateway
	verifier, err := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		app.closeStores()
		return nil, err
	}
	wsConfig := websocket.DefaultConfig()
	wsConfig.SendBuffer = cfg.WebSocket.BufferSize
	wsConfig.WriteTimeout = cfg.WebSocket.WriteTimeout
	wsConfig.PongTimeout = cfg.WebSocket.PongTimeout
	wsConfig.PingInterval = cfg.WebSocket.PingInterval
	wsConfig.AuthTimeout = cfg.Auth.Timeout
	wsConfig.MaxMessageBytes = cfg.WebSocket.MaxMessageBytes
	wsConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	app.gateway = websocket.NewHandler(verifier, app.directory, app.registry, app.messageHub, wsConfig, logger)

	// STEP 7: HTTP API, which also mounts the gateway on /ws
	apiServer := api.NewServer(api.Options{
		Verifier:        verifier,
		Directory:       app.directory,
		Notifier:        engine,
		Presence:        app.registry,
		Messenger:       messenger,
		Conversations:   dbManager,
		Notifications:   app.notifications,
		Assessments:     dbManager,
		Attendance:      dbManager,
		Announcements:   dbManager,
		Health:          dbManager,
		Gateway:         app.gateway,
		AuthTimeout:     cfg.Auth.Timeout,
		AtRiskThreshold: cfg.Grading.AtRiskThreshold,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		Logger:          logger,
	})

	app.httpServer = &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      apiServer,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return app, nil
}

// Start begins background processing and serving. It returns once the
// listener is bound.
func (app *Application) Start(ctx context.Context) error {
	app.logger.Info("starting campuswire", slog.String("address", app.httpServer.Addr))

	// STEP 1: Start the hub before any connection can dispatch to it. Its
	// lifetime is Stop's to end, not the caller's: a cancelled ctx must not
	// kill the workers while sockets are still open.
	// TECHNICAL DISCOVERY: WithoutCancel keeps ctx values and drops its deadline
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app.cancel = cancel
	if err := app.messageHub.Start(jobCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start message hub: %w", err)
	}

	// STEP 2: Background jobs
	if interval := app.config.Notifications.PurgeInterval; interval > 0 {
		app.wg.Add(1)
		go app.purgeLoop(jobCtx, interval)
	}

	// STEP 3: Bind before returning so a taken port fails Start
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		app.stopBackground()
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = ln

	// STEP 4: Serve (accepts connections)
	go func() {
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()
	app.logger.Info("campuswire started", slog.String("address", ln.Addr().String()))
	return nil
}

// purgeLoop removes read notifications past the retention window.
func (app *Application) purgeLoop(ctx context.Context, interval time.Duration) {
	defer app.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.PurgeReadNotifications(ctx); err != nil {
				app.logger.Warn("notification purge failed", slog.Any("error", err))
			}
		}
	}
}

// PurgeReadNotifications deletes read notifications older than the
// retention window.
func (app *Application) PurgeReadNotifications(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-app.config.Notifications.Retention)
	removed, err := app.notifications.PurgeRead(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		app.logger.Info("purged read notifications", slog.Int("removed", removed))
	}
	return removed, nil
}

func (app *Application) stopBackground() {
	if app.cancel != nil {
		app.cancel()
	}
	app.wg.Wait()
	if err := app.messageHub.Stop(); err != nil && !errors.Is(err, hub.ErrHubNotRunning) {
		app.logger.Error("message hub shutdown error", slog.Any("error", err))
	}
}

func (app *Application) closeStores() {
	if app.badgerDB != nil {
		if err := app.badgerDB.Close(); err != nil {
			app.logger.Error("badger shutdown error", slog.Any("error", err))
		}
	}
	if err := app.dbManager.Close(); err != nil {
		app.logger.Error("database shutdown error", slog.Any("error", err))
	}
}

// Stop shuts down in reverse dependency order: HTTP → sockets → background →
// stores. Hijacked WebSocket connections outlive http.Server.Shutdown and are
// closed explicitly.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info("shutting down campuswire")

	err := app.httpServer.Shutdown(ctx)
	if err != nil {
		app.logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}
	if closed := app.gateway.CloseAll(); closed > 0 {
		app.logger.Info("closed live connections", slog.Int("connections", closed))
	}
	app.stopBackground()
	app.closeStores()

	app.logger.Info("campuswire shutdown complete")
	return err
}

// GetAddr returns the bound address once started, the configured one before.
func (app *Application) GetAddr() string {
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}

// GetStats merges registry, hub and directory cache counters.
func (app *Application) GetStats() map[string]int {
	return lo.Assign(app.registry.GetStats(), app.messageHub.GetStats(), app.directory.GetStats())
}
