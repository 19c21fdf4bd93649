// Package config loads the service configuration from the environment and
// from an optional TOML secrets file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

// EnvLocal is the default APP_ENV.
const EnvLocal = "local"

// Store backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var (
	ErrMissingCredentials = errors.New("store url and key are not configured")
	ErrInvalidURL         = errors.New("store url is invalid")
	ErrMissingDSN         = errors.New("postgres dsn is not configured")
	ErrUnknownBackend     = errors.New("unknown store backend")
)

type Config struct {
	Env         string `env:"APP_ENV" env-default:"local"`
	SecretsFile string `env:"SECRETS_FILE" env-default:".streamlit/secrets.toml"`
	HTTP        HTTPConfig
	Store       StoreConfig
	Cache       CacheConfig
}

type HTTPConfig struct {
	Port int `env:"HTTP_PORT" env-default:"3000"`
}

type StoreConfig struct {
	Backend string        `env:"STORE_BACKEND" env-default:"rest"`
	URL     string        `env:"SUPABASE_URL"`
	Key     string        `env:"SUPABASE_KEY"`
	Table   string        `env:"SUPABASE_TABLE" env-default:"tasks"`
	Timeout time.Duration `env:"STORE_TIMEOUT" env-default:"10s"`

	PostgresDSN string `env:"DATABASE_URL"`
	SQLitePath  string `env:"DB_PATH" env-default:"tasks.db"`
	DBDebug     bool   `env:"DB_DEBUG" env-default:"false"`

	secretsErr error
}

type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND" env-default:"memory"`
	TTL           time.Duration `env:"CACHE_TTL" env-default:"60s"`
	Prefix        string        `env:"CACHE_PREFIX" env-default:"tasktracker:"`
	RedisAddr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
}

// Secrets mirrors the [supabase] table of a secrets.toml file.
type Secrets struct {
	Supabase struct {
		URL string `toml:"url"`
		Key string `toml:"key"`
	} `toml:"supabase"`
}

// Load reads the configuration from the environment. Credentials missing from
// the environment are looked up in SecretsFile when it exists. An unreadable
// secrets file does not fail Load; it is reported by StoreConfig.Validate.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if cfg.Store.URL == "" || cfg.Store.Key == "" {
		secrets, err := ReadSecrets(cfg.SecretsFile)
		if err != nil {
			cfg.Store.secretsErr = err
		} else if secrets != nil {
			cfg.Store.applySecrets(secrets)
		}
	}

	return cfg, nil
}

// ReadSecrets parses a secrets file. A missing file yields nil, nil.
func ReadSecrets(path string) (*Secrets, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	secrets := new(Secrets)
	if err := cleanenv.ReadConfig(path, secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	return secrets, nil
}

func (c *StoreConfig) applySecrets(s *Secrets) {
	if c.URL == "" {
		c.URL = s.Supabase.URL
	}
	if c.Key == "" {
		c.Key = s.Supabase.Key
	}
}

// Validate reports why the store cannot be connected. A non-nil result means
// the store must run disconnected.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case BackendREST:
		if c.URL == "" || c.Key == "" {
			if c.secretsErr != nil {
				return fmt.Errorf("%w: %w", ErrMissingCredentials, c.secretsErr)
			}
			return ErrMissingCredentials
		}
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidURL, c.URL)
		}
		return nil
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return ErrMissingDSN
		}
		return nil
	case BackendSQLite:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}
