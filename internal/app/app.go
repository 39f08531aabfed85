// Package app wires the application components together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/triplog/internal/config"
	"github.com/edgard/triplog/internal/database"
	"github.com/edgard/triplog/internal/ingest"
	"github.com/edgard/triplog/internal/scheduler"
	"github.com/edgard/triplog/internal/server"
	"github.com/edgard/triplog/internal/telegram"
)

const maintenanceJob = "db_maintenance"

// App holds the application components.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlx.DB
	store     database.Store
	server    *server.Server
	scheduler *scheduler.Scheduler
	webhook   *telegram.Webhook
}

// New initializes all components from the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := database.NewStore(db, logger)
	svc := ingest.New(store, logger)

	srv := server.New(server.Config{
		ListenAddr:     cfg.ListenAddr,
		TelegramSecret: cfg.Telegram.WebhookSecret,
	}, svc, store, logger)

	sched, err := scheduler.New(logger)
	if err != nil {
		database.CloseDB(db)
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if cfg.Maintenance.Enabled {
		if err := sched.AddCron(maintenanceJob, cfg.Maintenance.Schedule, store.RunMaintenance); err != nil {
			database.CloseDB(db)
			return nil, err
		}
	}

	app := &App{
		cfg:       cfg,
		logger:    logger.With("component", "app"),
		db:        db,
		store:     store,
		server:    srv,
		scheduler: sched,
	}

	if cfg.Telegram.RegisterWebhook {
		app.webhook = telegram.NewWebhook(
			cfg.Telegram.Token,
			cfg.Telegram.WebhookSecret,
			cfg.Telegram.WebhookBaseURL,
			logger,
		)
	}

	return app, nil
}

// Run starts all components and blocks until ctx is cancelled or a
// component fails. The database is closed on the way out.
func (a *App) Run(ctx context.Context) error {
	defer database.CloseDB(a.db)

	if a.webhook != nil {
		regCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := a.webhook.Register(regCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to register telegram webhook: %w", err)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(gCtx)
	})

	g.Go(func() error {
		if err := a.scheduler.Start(); err != nil {
			return err
		}
		<-gCtx.Done()
		return a.scheduler.Stop()
	})

	a.logger.Info("application running", "listen_addr", a.cfg.ListenAddr)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	a.logger.Info("application stopped")
	return nil
}
