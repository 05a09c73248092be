// Package config loads vhours settings from the environment, an optional
// .env file and an optional YAML file pointed to by CONFIG_PATH.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env string `yaml:"env" env:"VHOURS_ENV" env-default:"prod" validate:"oneof=dev staging prod"`

	// BackendURL is the backend root; volunteer endpoints live under /volunteer_hours.
	BackendURL  string        `yaml:"backend_url" env:"VHOURS_BACKEND_URL"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"VHOURS_HTTP_TIMEOUT" env-default:"10s" validate:"gt=0"`

	State State `yaml:"state"`

	StatusAddr         string        `yaml:"status_addr" env:"VHOURS_STATUS_ADDR" env-default:":8080"`
	StatusOrigins      []string      `yaml:"status_origins" env:"VHOURS_STATUS_ORIGINS" env-separator:","`
	HealthInterval     time.Duration `yaml:"health_interval" env:"VHOURS_HEALTH_INTERVAL" env-default:"60s" validate:"gt=0"`
	StatusPageInterval time.Duration `yaml:"status_page_interval" env:"VHOURS_STATUS_PAGE_INTERVAL" env-default:"30s" validate:"gt=0"`

	MaillistURL  string `yaml:"maillist_url" env:"VHOURS_MAILLIST_URL"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"VHOURS_OTLP_ENDPOINT"`
}

// State selects where the session store keeps its values.
type State struct {
	Backend string `yaml:"backend" env:"VHOURS_STATE_BACKEND" env-default:"sqlite" validate:"oneof=sqlite redis"`
	Path    string `yaml:"path" env:"VHOURS_STATE_PATH"`
	Redis   Redis  `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"VHOURS_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `yaml:"password" env:"VHOURS_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"VHOURS_REDIS_DB" env-default:"0"`
}

var ErrBackendNotConfigured = errors.New("backend URL is not configured, set VHOURS_BACKEND_URL")

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot read environment: %w", err)
	}

	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireBackend reports ErrBackendNotConfigured when no backend URL is set.
func (c Config) RequireBackend() error {
	if c.BackendURL == "" {
		return ErrBackendNotConfigured
	}
	return nil
}

// DefaultStatePath follows the XDG data dir layout: ~/.local/share/vhours/state.db
func DefaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".local", "share", "vhours", "state.db")
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
