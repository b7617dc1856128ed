package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"pairpad/internal/api"
	"pairpad/internal/catalog"
	"pairpad/internal/config"
	"pairpad/internal/relay"
	"pairpad/internal/websocket"
	pkgdatabase "pairpad/pkg/database"
)

// Application wires the relay process together: catalog database, connection
// registry, broadcaster, WebSocket handler and the HTTP surface.
type Application struct {
	config      *config.Config
	db          *sql.DB
	store       *catalog.Store
	registry    *websocket.Registry
	broadcaster *relay.Broadcaster
	apiServer   *api.Server
	httpServer  *http.Server
}

// NewApplication initializes all components in dependency order:
// database -> catalog -> registry -> broadcaster -> handlers -> HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbCfg := &pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  5,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}
	db, err := pkgdatabase.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := pkgdatabase.EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	store := catalog.NewStore(db)
	seed, err := catalog.Default()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load embedded catalog: %w", err)
	}
	if err := store.Seed(context.Background(), seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	registry := websocket.NewRegistry()
	broadcaster := relay.NewBroadcaster(registry)
	wsHandler := websocket.NewHandler(broadcaster, websocket.HandlerOptions{
		BufferSize:   cfg.WebSocket.BufferSize,
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
	})
	apiServer := api.NewServer(store, registry)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		db:          db,
		store:       store,
		registry:    registry,
		broadcaster: broadcaster,
		apiServer:   apiServer,
		httpServer:  httpServer,
	}, nil
}

// Start launches the broadcaster, then the HTTP server.
func (app *Application) Start(ctx context.Context) error {
	log.Info().Str("addr", app.httpServer.Addr).Msg("starting pairpad relay")

	if err := app.broadcaster.Start(ctx); err != nil {
		return fmt.Errorf("failed to start broadcaster: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.broadcaster.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Info().Msg("pairpad relay started")
		return nil
	case <-ctx.Done():
		app.broadcaster.Stop()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse order: HTTP, broadcaster, database.
func (app *Application) Stop(ctx context.Context) error {
	log.Info().Msg("shutting down pairpad relay")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := app.broadcaster.Stop(); err != nil {
		log.Error().Err(err).Msg("broadcaster shutdown error")
	}
	if err := app.db.Close(); err != nil {
		log.Error().Err(err).Msg("database shutdown error")
	}

	log.Info().Msg("pairpad relay shutdown complete")
	return nil
}

// Addr returns the address the HTTP server binds to.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
