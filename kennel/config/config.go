// Package config is the configuration of the kennel bot: the shared core
// sections plus storage, notification and service settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/kennelbot/core/config"
	"github.com/m3rciful/kennelbot/core/database"
)

// Inquiry store drivers.
const (
	StorageFile     = "file"
	StorageSQLite   = database.DriverSQLite
	StoragePostgres = database.DriverPostgres
)

// StorageConfig selects where inquiries are kept.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// InquiriesPath is the JSON log used by the file driver.
	InquiriesPath string `yaml:"inquiries_path" envconfig:"INQUIRIES_PATH"`
}

// CatalogConfig locates the catalog document.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
	// Watch reloads the catalog when the file changes.
	Watch bool `yaml:"watch" envconfig:"CATALOG_WATCH"`
}

// NATSConfig enables the NATS notifier when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url" envconfig:"NATS_URL"`
	Subject string `yaml:"subject" envconfig:"NATS_SUBJECT"`
}

// NotifyConfig groups operator notification settings.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

// HealthConfig configures the liveness and metrics endpoint.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	// Disabled turns the HTTP server off.
	Disabled bool `yaml:"disabled" envconfig:"HEALTH_DISABLED"`
}

// Addr is the listen address of the health server.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Listen, h.Port)
}

// SessionConfig bounds inquiry dialogues.
type SessionConfig struct {
	// IdleTimeout drops an unfinished inquiry after this long; 0 keeps it forever.
	IdleTimeout time.Duration `yaml:"idle_timeout" envconfig:"SESSION_IDLE_TIMEOUT"`
}

// AppConfig is the full configuration of the bot.
type AppConfig struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig   `yaml:"storage"`
	Database database.Config `yaml:"database"`
	Notify   NotifyConfig    `yaml:"notify"`
	Health   HealthConfig    `yaml:"health"`
	Session  SessionConfig   `yaml:"session"`
	Catalog  CatalogConfig   `yaml:"catalog"`
}

// CoreConfig exposes the shared core sections.
func (c *AppConfig) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads YAML from path (optional) and the environment, then normalizes.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLocal is Load without the Telegram token requirement, for CLI commands
// that only touch local data.
func LoadLocal(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := normalizeApp(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and bot sections and fills defaults.
func Normalize(cfg *AppConfig) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	return normalizeApp(cfg)
}

func normalizeApp(cfg *AppConfig) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = StorageFile
	}
	switch driver {
	case StorageFile:
		if strings.TrimSpace(cfg.Storage.InquiriesPath) == "" {
			cfg.Storage.InquiriesPath = "inquiries.json"
		}
	case StorageSQLite:
		if strings.TrimSpace(cfg.Database.SQLitePath) == "" {
			cfg.Database.SQLitePath = "kennelbot.db"
		}
	case StoragePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return errors.New("database.host and database.name are required for the postgres storage driver")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, sqlite, postgres", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	if strings.TrimSpace(cfg.Catalog.Path) == "" {
		cfg.Catalog.Path = "puppies.json"
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 10000
	}
	if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
		return fmt.Errorf("health.port out of range: %d", cfg.Health.Port)
	}
	if cfg.Health.Listen == "" {
		cfg.Health.Listen = "0.0.0.0"
	}
	if cfg.Session.IdleTimeout < 0 {
		return errors.New("session.idle_timeout must be >= 0")
	}
	if cfg.Notify.NATS.URL != "" && cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = "kennel.inquiries"
	}
	return nil
}
