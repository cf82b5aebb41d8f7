// Package server initializes and runs the main application server. It picks
// the storage backend, wires the authentication service, starts the HTTP
// endpoint, and runs the background refresh-token sweep until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/credkeeper/credkeeper/internal/logging"
	"github.com/credkeeper/credkeeper/internal/server/auth"
	"github.com/credkeeper/credkeeper/internal/server/config"
	"github.com/credkeeper/credkeeper/internal/server/db"
	"github.com/credkeeper/credkeeper/internal/server/httpapi"
	"github.com/credkeeper/credkeeper/internal/server/password"
	"github.com/credkeeper/credkeeper/internal/server/tokens"
	"github.com/credkeeper/credkeeper/internal/server/users"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	authority *tokens.Authority
	handler   http.Handler
	conn      *sql.DB // nil when the in-memory backend is selected
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var (
		repo  users.Repository
		store tokens.Store
		conn  *sql.DB
	)

	if cfg.DatabaseDSN != "" {
		var err error
		conn, err = db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = users.NewPostgresRepository(conn)
		store = tokens.NewPostgresStore(conn)
	} else {
		repo = users.NewMemoryRepository()
		store = tokens.NewMemoryStore()
	}

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	authority, err := tokens.NewAuthority([]byte(cfg.SecretKey),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration, store)
	if err != nil {
		return nil, fmt.Errorf("token authority init error: %w", err)
	}

	svc := auth.NewService(repo, hasher, authority, logger)
	handler := httpapi.NewRouter(svc, authority, logger)

	return &App{
		config:    cfg,
		logger:    logger,
		authority: authority,
		handler:   handler,
		conn:      conn,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startTokenSweeper periodically removes expired refresh-token state.
// Expired tokens already fail verification; the sweep only reclaims space.
func (app *App) startTokenSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.TokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.authority.SweepExpired(ctx)
			if err != nil {
				app.logger.Warn(ctx, "token sweep failed", "error", err.Error())
				continue
			}
			if removed > 0 {
				app.logger.Debug(ctx, "swept expired refresh tokens", "count", removed)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startTokenSweeper(ctx)
	}()

	wg.Wait()

	if app.conn != nil {
		if err := app.conn.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err.Error())
		}
	}
}
