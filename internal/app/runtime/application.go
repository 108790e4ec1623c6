// Package runtime boots a service role from configuration and runs its HTTP
// server until the context is cancelled.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/potential-games/mmo-services/internal/app"
	"github.com/potential-games/mmo-services/internal/app/storage/postgres"
	"github.com/potential-games/mmo-services/internal/config"
	"github.com/potential-games/mmo-services/pkg/logger"
)

// Application owns the process-level pieces of one running service: the
// configuration, the database handle, the wired app and the HTTP server.
type Application struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *sql.DB
	app    *app.Application
	server *http.Server
}

// New loads configuration and wires the application for the given role.
func New(role app.Role) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging).WithField("role", string(role))

	var db *sql.DB
	stores := app.Stores{}
	if role == app.RoleProfiles && cfg.Database.DSN != "" {
		db, err = openDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		store := postgres.New(db)
		stores = app.Stores{Players: store, Characters: store}
		log.Info("using postgres storage")
	} else if role == app.RoleProfiles {
		log.Warn("no database dsn configured, using in-memory storage")
	}

	application, err := app.New(role, stores, cfg, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      application.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Application{
		cfg:    cfg,
		logger: log,
		db:     db,
		app:    application,
		server: server,
	}, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Run starts the lifecycle services and the HTTP server, then blocks until
// the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("starting services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", a.server.Addr).Info("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-errCh:
		a.logger.WithError(err).Error("http server failed")
		_ = a.Shutdown()
		return err
	}
}

// Shutdown stops the HTTP server and the lifecycle services, then closes the
// database handle.
func (a *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := a.app.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.logger.Info("shutdown complete")
	return firstErr
}
