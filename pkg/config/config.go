package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds all agent settings. Values are loaded from an optional YAML
// config file (CONFIG_FILE, default ./config.yaml) and then overridden by
// environment variables with matching uppercased names, e.g. BACKEND_URL.
type Config struct {
	BackendURL     string        `koanf:"backend_url"`
	BackendToken   string        `koanf:"backend_token"`
	BackendTimeout time.Duration `koanf:"backend_timeout"`

	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`

	Hostname   string `koanf:"-"`
	ServerHost string `koanf:"server_host"`
	ServerPort int    `koanf:"server_port"`

	// ProbeInterval controls how often the connectivity monitor pings the
	// backend health endpoint.
	ProbeInterval time.Duration `koanf:"probe_interval"`
	// SyncInterval controls the periodic retry drain for items that failed
	// during earlier passes.
	SyncInterval time.Duration `koanf:"sync_interval"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		BackendTimeout:            15 * time.Second,
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		Hostname:                  hostname,
		ProbeInterval:             30 * time.Second,
		ServerHost:                "127.0.0.1",
		ServerPort:                3690,
		SyncInterval:              5 * time.Minute,
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = "./config.yaml"
	}
	if _, statErr := os.Stat(configFile); statErr == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	// Environment variables override file values. BACKEND_URL maps to
	// backend_url, and so on.
	err = k.Load(env.Provider("", ".", strings.ToLower), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	missing := []string{}
	if cfg.DatabaseFilePath == "" {
		missing = append(missing, "DATABASE_FILE_PATH (database_file_path)")
	}
	if cfg.BackendURL == "" {
		missing = append(missing, "BACKEND_URL (backend_url)")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
