// Package app assembles the kennel bot from configuration: storage, catalog,
// dialogue, notifiers, the Telegram front and the health server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/kennelbot/core/bootstrap"
	coreconfig "github.com/m3rciful/kennelbot/core/config"
	"github.com/m3rciful/kennelbot/core/database"
	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/core/state"
	tg "github.com/m3rciful/kennelbot/core/telegram"
	"github.com/m3rciful/kennelbot/core/telegram/sender"
	"github.com/m3rciful/kennelbot/kennel/bot"
	"github.com/m3rciful/kennelbot/kennel/catalog"
	"github.com/m3rciful/kennelbot/kennel/config"
	"github.com/m3rciful/kennelbot/kennel/conversation"
	"github.com/m3rciful/kennelbot/kennel/engine"
	"github.com/m3rciful/kennelbot/kennel/health"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
	"github.com/m3rciful/kennelbot/kennel/menu"
	"github.com/m3rciful/kennelbot/kennel/notify"
)

// App is a fully wired bot ready to run.
type App struct {
	cfg     *config.AppConfig
	infra   *bootstrap.Result
	catalog *catalog.FileStore
	store   inquiry.Store
	ctrl    *conversation.Controller
	bot     *bot.Bot

	operator   *notify.Telegram
	nats       *notify.NATS
	notifyDisp *sender.Dispatcher

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CoreConfig lets the shared runner read the core sections.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg.CoreConfig() }

// New bootstraps infrastructure and wires every component.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{cfg: cfg, catalog: catalog.NewFileStore(cfg.Catalog.Path)}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Driver:   databaseDriver(cfg.Storage.Driver),
		Seeders: []bootstrap.Seeder{bootstrap.SeederFunc(func(ctx context.Context, _ *bootstrap.Result) error {
			_, err := a.catalog.Load(ctx)
			return err
		})},
	})
	if err != nil {
		return nil, err
	}
	a.infra = infra

	if a.store, err = storeFor(ctx, cfg, infra); err != nil {
		_ = infra.Close()
		return nil, err
	}

	a.notifyDisp = sender.NewDispatcher(sender.Options{Workers: 1, MaxRetries: 0})
	a.operator = notify.NewTelegram(cfg.Telegram.AdminID, a.notifyDisp)
	notifiers := []notify.Notifier{a.operator}
	if cfg.Notify.NATS.URL != "" {
		if a.nats, err = notify.DialNATS(ctx, cfg.Notify.NATS.URL, cfg.Notify.NATS.Subject); err != nil {
			_ = a.Close()
			return nil, err
		}
		notifiers = append(notifiers, a.nats)
	}

	a.ctrl = conversation.New(state.NewMemoryManager(), a.store, notify.Combine(notifiers...))
	a.bot = bot.New(engine.New(menu.NewGraph(a.catalog), a.ctrl))

	logger.Info(ctx, "app", "wired",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Catalog.Path),
		slog.Int("count", len(notifiers)),
	)
	return a, nil
}

// TelegramRunOptions builds the runtime options for the shared Telegram runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.bot == nil {
		return tg.RunOptions{}, errors.New("app: not initialized")
	}
	reg := a.bot.Registry()
	return tg.RunOptions{
		Config:            &a.cfg.Config,
		Registry:          reg,
		DispatcherOptions: sender.Options{MaxRetries: 2},
		Middlewares:       tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:            a.bot.Routes(reg),
		OnStart:           a.onStart,
		OnStop:            a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.operator.SetBot(rt.Bot)

	bg, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if !a.cfg.Health.Disabled {
		srv := health.NewServer(a.cfg.Health.Addr())
		a.goRun(func() {
			if err := srv.Run(bg); err != nil {
				logger.Error(bg, "health", "serve", slog.String("status", "fail"), slog.String("err", err.Error()))
			}
		})
	}
	if a.cfg.Catalog.Watch {
		if err := a.catalog.Watch(bg); err != nil {
			logger.Warn(bg, "catalog", "watch", slog.String("status", "fail"), slog.String("err", err.Error()))
		}
	}
	if timeout := a.cfg.Session.IdleTimeout; timeout > 0 {
		a.goRun(func() { a.ctrl.Sweep(bg, timeout, 0) })
	}
	return nil
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

func (a *App) onStop(context.Context, tg.Runtime) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return a.Close()
}

// Close releases stores, connections and the notification sender.
func (a *App) Close() error {
	var errs []error
	if a.nats != nil {
		errs = append(errs, a.nats.Close())
	}
	if a.notifyDisp != nil {
		a.notifyDisp.Close()
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
	}
	return errors.Join(errs...)
}

func databaseDriver(storage string) string {
	switch storage {
	case config.StorageSQLite, config.StoragePostgres:
		return storage
	}
	return ""
}

func storeFor(ctx context.Context, cfg *config.AppConfig, infra *bootstrap.Result) (inquiry.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		return inquiry.OpenFile(ctx, cfg.Storage.InquiriesPath)
	case config.StorageSQLite:
		if err := database.EnsureSchema(ctx, infra.DB, inquiry.SQLiteSchema...); err != nil {
			return nil, fmt.Errorf("app: sqlite schema: %w", err)
		}
		return inquiry.NewSQLStore(infra.DB, database.DriverSQLite), nil
	case config.StoragePostgres:
		return inquiry.NewSQLStore(infra.DB, database.DriverPostgres), nil
	}
	return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
}

// OpenStore opens the configured inquiry store without the rest of the bot,
// for command-line use. Postgres is expected to be migrated already.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (inquiry.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		return inquiry.OpenFile(ctx, cfg.Storage.InquiriesPath)
	case config.StorageSQLite:
		return inquiry.OpenSQLite(ctx, cfg.Database.SQLitePath)
	case config.StoragePostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		return inquiry.NewSQLStore(db, database.DriverPostgres), nil
	}
	return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
}
