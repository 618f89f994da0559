package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/kennelbot/core/config"
	coredatabase "github.com/m3rciful/kennelbot/core/database"
	"github.com/m3rciful/kennelbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Driver selects the database: DriverPostgres connects and migrates,
	// DriverSQLite opens the file, empty means the bot keeps no database.
	Driver string
	// Seeders run after the database is ready, in order.
	Seeders []Seeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
	OpenSQLite func(path string) (*sqlx.DB, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil when Options.Driver is empty.
	DB     *sqlx.DB
	Driver string
}

// Close releases the database, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, opens the database, applies migrations and runs seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{Driver: opts.Driver}
	switch opts.Driver {
	case "":
	case coredatabase.DriverPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		res.DB = db
	case coredatabase.DriverSQLite:
		open := opts.OpenSQLite
		if open == nil {
			open = coredatabase.OpenSQLite
		}
		db, err := open(opts.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db
	default:
		return nil, fmt.Errorf("bootstrap: unknown database driver %q", opts.Driver)
	}

	for _, s := range opts.Seeders {
		if err := s.Seed(ctx, res); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeding failed: %w", err)
		}
	}
	return res, nil
}
