package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/onexay/travis-notify/internal/appendlog"
	"github.com/onexay/travis-notify/internal/auth"
	"github.com/onexay/travis-notify/internal/notify"
	"github.com/onexay/travis-notify/internal/storage"
)

// StorageBackend enumerates supported persistence layers.
type StorageBackend string

const (
	// StorageBackendMemory keeps data in-process.
	StorageBackendMemory StorageBackend = "memory"
	// StorageBackendKeyDB persists data to KeyDB/Redis.
	StorageBackendKeyDB StorageBackend = "keydb"
	// StorageBackendBolt persists data to a BoltDB file.
	StorageBackendBolt StorageBackend = "bolt"
	// StorageBackendSQLite persists data to a SQLite database.
	StorageBackendSQLite StorageBackend = "sqlite"
)

const (
	// DefaultPath is read when TRAVIS_NOTIFY_CONFIG is unset.
	DefaultPath = "config.toml"

	// TokenKey is the settings key holding the shared Travis token.
	TokenKey = auth.DefaultTokenKey
	defaultMaxRetries = 5
)

// Config aggregates runtime configuration.
type Config struct {
	APIAddr string        `toml:"api_addr"`
	Storage StorageConfig `toml:"storage"`
	History HistoryConfig `toml:"history"`
	Mail    MailConfig    `toml:"mail"`
	Auth    AuthConfig    `toml:"auth"`

	// Settings holds every key of the file flattened to dotted names,
	// e.g. "travis_notify.token".
	Settings Settings `toml:"-"`
}

// StorageConfig contains backend selection and nested settings.
type StorageConfig struct {
	Backend    StorageBackend `toml:"backend"`
	KeyDB      storage.Config `toml:"keydb"`
	BoltPath   string         `toml:"bolt_path"`
	SQLitePath string         `toml:"sqlite_path"`
	MaxRetries int            `toml:"max_retries"`
}

// HistoryConfig sizes the per-repository logs.
type HistoryConfig struct {
	RecentLimit *int `toml:"recent_limit"`
}

// MailConfig describes the outbound SMTP relay. An empty SMTPAddr logs
// messages instead of sending them.
type MailConfig struct {
	SMTPAddr string `toml:"smtp_addr"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// AuthConfig selects the settings key holding the webhook secret.
type AuthConfig struct {
	TokenKey string `toml:"token_key"`
}

// RecentLimitOrDefault returns the configured recent window size or the default.
// An explicit zero is honoured.
func (h HistoryConfig) RecentLimitOrDefault() int {
	if h.RecentLimit != nil && *h.RecentLimit >= 0 {
		return *h.RecentLimit
	}
	return appendlog.DefaultCapacity
}

// TokenKeyOrDefault returns the settings key for the webhook secret.
func (a AuthConfig) TokenKeyOrDefault() string {
	if key := strings.TrimSpace(a.TokenKey); key != "" {
		return key
	}
	return TokenKey
}

// Load reads the file named by TRAVIS_NOTIFY_CONFIG (or DefaultPath) and
// applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(envDefault("TRAVIS_NOTIFY_CONFIG", DefaultPath))
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, defaults and environment values are used.
// Environment variables always take precedence over file values.
func LoadFrom(path string) (Config, error) {
	var cfg Config
	raw := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return Config{}, fmt.Errorf("decode settings %s: %w", path, err)
		}
	}
	cfg.Settings = Flatten(raw)
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.APIAddr == "" {
		cfg.APIAddr = ":8080"
	}
	cfg.Storage.Backend = StorageBackend(strings.ToLower(string(cfg.Storage.Backend)))
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendMemory
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = "data/travis-notify.db"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/travis-notify.sqlite"
	}
	if cfg.Storage.MaxRetries <= 0 {
		cfg.Storage.MaxRetries = defaultMaxRetries
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = StorageBackend(v)
	}
	if v := os.Getenv("KEYDB_ADDR"); v != "" {
		cfg.Storage.KeyDB.Addr = v
	}
	if v := os.Getenv("KEYDB_USERNAME"); v != "" {
		cfg.Storage.KeyDB.Username = v
	}
	if v := os.Getenv("KEYDB_PASSWORD"); v != "" {
		cfg.Storage.KeyDB.Password = v
	}
	cfg.Storage.KeyDB.Database = envInt("KEYDB_DB", cfg.Storage.KeyDB.Database)
	if v := os.Getenv("BOLT_PATH"); v != "" {
		cfg.Storage.BoltPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	cfg.Storage.MaxRetries = envInt("STORAGE_MAX_RETRIES", cfg.Storage.MaxRetries)
	if v := os.Getenv("HISTORY_RECENT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.RecentLimit = &n
		}
	}
	if v := os.Getenv("SMTP_ADDR"); v != "" {
		cfg.Mail.SMTPAddr = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := os.Getenv("TRAVIS_NOTIFY_TOKEN"); v != "" {
		cfg.Settings[cfg.Auth.TokenKeyOrDefault()] = v
	}
	if v := os.Getenv("TRAVIS_NOTIFY_RECIPIENTS"); v != "" {
		cfg.Settings[notify.RecipientsKey] = v
	}
}

func envDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}
