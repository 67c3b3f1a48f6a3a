// Package app wires the components together and owns the process
// lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"pricewatch/internal/config"
	"pricewatch/internal/domain"
	"pricewatch/internal/notifier"
	"pricewatch/internal/prices"
	"pricewatch/internal/registry"
	"pricewatch/internal/router"
	"pricewatch/internal/storage"
	"pricewatch/internal/transport"
	"pricewatch/internal/transport/telegram"
	"pricewatch/pkg/logx"
)

type App struct {
	cfgPath string
	cfg     *config.Config

	logSvc  *logx.Service
	log     logx.Logger
	store   storage.Store
	adapter transport.Adapter
	reg     *registry.Registry
	notif   *notifier.Service
	router  *router.Router
}

func New(cfgPath string, cfg *config.Config) (*App, error) {
	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})

	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout.Std(),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout.Std(),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	return newApp(cfgPath, cfg, logSvc, log, store, adapter)
}

// newApp finishes construction from already-built edges, so tests can
// substitute a fake adapter and a pre-seeded store.
func newApp(cfgPath string, cfg *config.Config, logSvc *logx.Service, log logx.Logger, store storage.Store, adapter transport.Adapter) (*App, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}

	a := &App{
		cfgPath: cfgPath,
		cfg:     cfg,
		logSvc:  logSvc,
		log:     log,
		store:   store,
		adapter: adapter,
	}

	// The registry fires into the notifier, and the notifier removes
	// registry jobs on cascade delete; the closure breaks the construction
	// cycle.
	a.reg = registry.New(registry.Config{
		Location:      loc,
		MaxConcurrent: cfg.Prices.Concurrency,
	}, func(ctx context.Context, userID int64) error {
		return a.notif.Run(ctx, userID)
	}, log.With(logx.String("comp", "registry")))

	priceClient := prices.New(prices.Config{
		BaseURL: cfg.Prices.BaseURL,
		Timeout: cfg.Prices.Timeout.Std(),
	})

	a.notif = notifier.New(notifier.Config{
		Concurrency: cfg.Prices.Concurrency,
		RatePerSec:  cfg.Notifier.RatePerSec,
	}, store, priceClient, adapter, a.reg, log.With(logx.String("comp", "notifier")))

	a.router = router.New(router.Config{
		Markets: cfg.Prices.Markets,
		Modes:   cfg.Notifier.Modes,
	}, store, a.reg, priceClient, adapter, log.With(logx.String("comp", "router")))

	return a, nil
}

// Run blocks until ctx is canceled, then shuts down in dependency order.
func (a *App) Run(ctx context.Context) error {
	if err := a.loadJobs(ctx); err != nil {
		return err
	}
	a.reg.Start(ctx)

	updates := make(chan transport.Update, 128)
	if err := a.adapter.Start(ctx, updates); err != nil {
		return err
	}

	if err := config.Watch(ctx, a.cfgPath, a.log.With(logx.String("comp", "config")), a.applyConfig); err != nil {
		a.log.Warn("config watch unavailable", logx.Err(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("ready")

	for {
		select {
		case <-ctx.Done():
			return a.shutdown()
		case up := <-updates:
			a.router.Handle(ctx, up)
		}
	}
}

// loadJobs rebuilds the job registry from the store: one job per user at
// the timezone-adjusted fire time. The persisted paused flag is honored,
// so paused users stay paused across restarts.
func (a *App) loadJobs(ctx context.Context) error {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if err := a.reg.Schedule(u.ID, domain.FireHour(u.Hour, u.Timezone), u.Minute, u.Paused); err != nil {
			a.log.Error("schedule at load failed", logx.Int64("user", u.ID), logx.Err(err))
		}
	}
	a.log.Info("jobs loaded", logx.Int("users", len(users)))
	return nil
}

// applyConfig handles hot reload. Only the logging knobs are applied at
// runtime; transport, storage and schedule settings need a restart.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
}

func (a *App) shutdown() error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.adapter.Stop(stopCtx)
	a.reg.Stop(stopCtx)
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close failed", logx.Err(err))
	}
	_ = a.logSvc.Close()
	return nil
}
