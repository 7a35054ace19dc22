// Package server initializes and runs the trigger host: it opens the
// database, applies migrations, and runs the role-claims watcher until
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"recordkeeper/internal/logging"
	"recordkeeper/internal/server/claimsync"
	"recordkeeper/internal/server/config"
	"recordkeeper/internal/server/repositories/repomanager"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rm      repomanager.RepositoryManager
	watcher *claimsync.Watcher
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	sync := claimsync.NewSynchronizer(db, rm, logger)
	watcher := claimsync.NewWatcher(cfg.DatabaseDSN, sync, logger)

	return &App{config: cfg, logger: logger, db: db, rm: rm, watcher: watcher}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWatcher(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.watcher.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		cancelFunc()
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWatcher(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
