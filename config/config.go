// sqadmin/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	AppVersion = "0.4.1"

	// EnvPrefix namespaces every environment override, e.g.
	// SQADMIN_UPSTREAM_URL, SQADMIN_LISTEN, SQADMIN_SESSION_SECRET.
	EnvPrefix = "SQADMIN_"

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "SQADMIN_CONFIG"
)

// DefaultConfigPaths lists where a config file is searched, first match wins.
var DefaultConfigPaths = []string{
	"sqadmin.yaml",
	"sqadmin.yml",
	"/etc/sqadmin/config.yaml",
}

// Config holds every runtime knob of the gateway. Defaults are overridden by
// an optional YAML file, then by SQADMIN_* environment variables.
type Config struct {
	Listen      string `koanf:"listen" validate:"required"`
	BasePath    string `koanf:"base_path"`
	UpstreamURL string `koanf:"upstream_url" validate:"required,url"`
	DBPath      string `koanf:"db_path" validate:"required"`

	// SessionSecret signs the session cookie. Left empty, a random secret is
	// generated at startup and sessions will not survive a restart.
	SessionSecret string        `koanf:"session_secret" validate:"omitempty,min=32"`
	SessionTTL    time.Duration `koanf:"session_ttl" validate:"required"`

	CacheTTL time.Duration `koanf:"cache_ttl"`
	PageSize int           `koanf:"page_size" validate:"min=1,max=100"`

	LoginRateEvery  time.Duration `koanf:"login_rate_every"`
	LoginRateBurst  int           `koanf:"login_rate_burst" validate:"min=1"`
	LoginRatePrune  time.Duration `koanf:"login_rate_prune"`
	LoginRateExpire time.Duration `koanf:"login_rate_expire"`
}

func defaultConfig() *Config {
	return &Config{
		Listen:          ":8080",
		BasePath:        "",
		UpstreamURL:     "http://localhost:9000",
		DBPath:          "./sqadmin.db?_journal_mode=WAL&_foreign_keys=on",
		SessionSecret:   "",
		SessionTTL:      7 * 24 * time.Hour,
		CacheTTL:        30 * time.Second,
		PageSize:        10,
		LoginRateEvery:  30 * time.Second,
		LoginRateBurst:  5,
		LoginRatePrune:  1 * time.Hour,
		LoginRateExpire: 24 * time.Hour,
	}
}

// Load builds the effective configuration: defaults, then the first config
// file found (or the one named by SQADMIN_CONFIG), then environment
// variables. The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")
	cfg.UpstreamURL = strings.TrimSuffix(cfg.UpstreamURL, "/")

	return &cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
