// ABOUTME: Configuration loading and parsing for personal-crm
// ABOUTME: Reads YAML or TOML with ${VAR} expansion, .env loading and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left empty.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultMetricsPath     = "/metrics"
	DefaultIdempotencyTTL  = 10 * time.Minute
	DefaultShutdownTimeout = 5 * time.Second
)

// minJWTSecretLength matches the shortest secret the auth package accepts.
const minJWTSecretLength = 32

// Config represents the complete personal-crm configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Database    DatabaseConfig    `yaml:"database" toml:"database"`
	Auth        AuthConfig        `yaml:"auth" toml:"auth"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" toml:"metrics"`
	Idempotency IdempotencyConfig `yaml:"idempotency" toml:"idempotency"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration.
// An empty JWTSecret leaves the API open.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// IdempotencyConfig controls how long Idempotency-Key values are remembered
type IdempotencyConfig struct {
	TTL    time.Duration `yaml:"-" toml:"-"`
	TTLRaw string        `yaml:"ttl" toml:"ttl"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// A .env file next to the config is loaded first so ${VAR} can refer to it.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, isTOML(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes, expands, defaults and validates raw config content.
func Parse(data []byte, asTOML bool) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if asTOML {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from each existing file into the
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Idempotency.TTL == 0 {
		c.Idempotency.TTL = DefaultIdempotencyTTL
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLength)
	}

	if c.Idempotency.TTL < 0 {
		return fmt.Errorf("idempotency.ttl must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Idempotency.TTLRaw != "" {
		cfg.Idempotency.TTL, err = time.ParseDuration(cfg.Idempotency.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing idempotency ttl %q: %w", cfg.Idempotency.TTLRaw, err)
		}
	}

	return nil
}
