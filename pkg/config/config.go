package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// SHELFTALK_SERVER_PORT overrides server.port.
const envPrefix = "SHELFTALK_"

// configPathENV can point at an explicit config file; otherwise the default
// paths are searched in order.
const configPathENV = "SHELFTALK_CONFIG"

var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelftalk/config.yaml",
}

type Config struct {
	Environment string         `koanf:"environment"`
	Server      ServerConfig   `koanf:"server"`
	Database    DatabaseConfig `koanf:"database"`
	Auth        AuthConfig     `koanf:"auth"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	Path              string        `koanf:"path"`
	Debug             bool          `koanf:"debug"`
	MaxRetries        int           `koanf:"max_retries"`
	BusyTimeout       time.Duration `koanf:"busy_timeout"`
	ConnectRetryCount int           `koanf:"connect_retry_count"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. Required in production.
	JWTSecret string `koanf:"jwt_secret"`
}

func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8360,
		},
		Database: DatabaseConfig{
			Path:              "./tmp/shelftalk.sqlite",
			MaxRetries:        5,
			BusyTimeout:       5 * time.Second,
			ConnectRetryCount: 5,
			ConnectRetryDelay: 2 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: "",
		},
	}
}

// New loads configuration from three layers: struct defaults, an optional
// YAML config file, and SHELFTALK_* environment variables, in increasing
// order of precedence.
func New() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.Environment {
	case "development", "test", "production":
	default:
		return errors.Errorf("unknown environment %q", cfg.Environment)
	}

	if cfg.Environment == "production" && cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in production")
	}
	// A fixed development secret keeps local sessions stable across restarts.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "shelftalk-dev-secret"
	}

	return nil
}

func findConfigFile() string {
	if path := os.Getenv(configPathENV); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
