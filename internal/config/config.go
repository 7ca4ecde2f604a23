// Package config loads application configuration from environment variables,
// optionally layered over a YAML file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation error returned from Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration. It is loaded once at startup
// and never mutated.
type Config struct {
	ClientID        string
	APIKey          string
	APIBaseURL      string
	Currency        string
	Host            string
	Port            int
	StaticDir       string
	DBPath          string
	SecretKey       []byte
	UpstreamTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LedgerEnabled reports whether created intents are recorded in SQLite.
func (c *Config) LedgerEnabled() bool {
	return c.DBPath != ""
}

// fileConfig is the YAML shape of PAYGATE_CONFIG_FILE. Pointer fields let an
// explicit empty value in the file be told apart from an absent key.
type fileConfig struct {
	ClientID        *string `yaml:"client_id"`
	APIKey          *string `yaml:"api_key"`
	APIBaseURL      *string `yaml:"api_base_url"`
	Currency        *string `yaml:"currency"`
	Host            *string `yaml:"host"`
	Port            *string `yaml:"port"`
	StaticDir       *string `yaml:"static_dir"`
	DBPath          *string `yaml:"db_path"`
	SecretKey       *string `yaml:"secret_key"`
	UpstreamTimeout *string `yaml:"upstream_timeout"`
	LogLevel        *string `yaml:"log_level"`
	LogFormat       *string `yaml:"log_format"`
}

// Load reads configuration and returns a validated Config.
//
// Required: PAYGATE_CLIENT_ID, PAYGATE_API_KEY.
// Optional variables with defaults: PAYGATE_API_BASE_URL (https://api.airwallex.com),
// PAYGATE_CURRENCY (EUR), PAYGATE_HOST (all interfaces), PAYGATE_PORT (3000),
// PAYGATE_STATIC_DIR (public; empty serves embedded assets), PAYGATE_DB_PATH
// (paygate.db; empty disables the ledger), PAYGATE_SECRET_KEY (unset),
// PAYGATE_UPSTREAM_TIMEOUT (30s), PAYGATE_LOG_LEVEL (info), PAYGATE_LOG_FORMAT (json).
//
// When PAYGATE_CONFIG_FILE names a YAML file its values replace the defaults,
// and environment variables override the file.
func Load() (*Config, error) {
	values, err := loadValues()
	if err != nil {
		return nil, err
	}
	return build(values)
}

// ListenAddr resolves only the server's host:port, from the same file and
// environment Load reads. Credentials are not required, so probes running
// beside the server can call it.
func ListenAddr() (string, error) {
	values, err := loadValues()
	if err != nil {
		return "", err
	}
	port, err := parsePort(values["PAYGATE_PORT"])
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(values["PAYGATE_HOST"], strconv.Itoa(port)), nil
}

// DBPath resolves only the ledger database path. An empty result means the
// ledger is disabled. Credentials are not required.
func DBPath() (string, error) {
	values, err := loadValues()
	if err != nil {
		return "", err
	}
	return values["PAYGATE_DB_PATH"], nil
}

// loadValues merges defaults, the optional config file and the environment.
func loadValues() (map[string]string, error) {
	values := map[string]string{
		"PAYGATE_API_BASE_URL":     "https://api.airwallex.com",
		"PAYGATE_CURRENCY":         "EUR",
		"PAYGATE_HOST":             "",
		"PAYGATE_PORT":             "3000",
		"PAYGATE_STATIC_DIR":       "public",
		"PAYGATE_DB_PATH":          "paygate.db",
		"PAYGATE_UPSTREAM_TIMEOUT": "30s",
		"PAYGATE_LOG_LEVEL":        "info",
		"PAYGATE_LOG_FORMAT":       "json",
	}

	if path, ok := os.LookupEnv("PAYGATE_CONFIG_FILE"); ok && path != "" {
		if err := applyFile(values, path); err != nil {
			return nil, err
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	return values, nil
}

// envKeys lists every variable Load reads besides PAYGATE_CONFIG_FILE.
var envKeys = []string{
	"PAYGATE_CLIENT_ID",
	"PAYGATE_API_KEY",
	"PAYGATE_API_BASE_URL",
	"PAYGATE_CURRENCY",
	"PAYGATE_HOST",
	"PAYGATE_PORT",
	"PAYGATE_STATIC_DIR",
	"PAYGATE_DB_PATH",
	"PAYGATE_SECRET_KEY",
	"PAYGATE_UPSTREAM_TIMEOUT",
	"PAYGATE_LOG_LEVEL",
	"PAYGATE_LOG_FORMAT",
}

func applyFile(values map[string]string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("PAYGATE_CONFIG_FILE: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: PAYGATE_CONFIG_FILE: parse %s: %w", ErrInvalidConfig, path, err)
	}

	set := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	set("PAYGATE_CLIENT_ID", fc.ClientID)
	set("PAYGATE_API_KEY", fc.APIKey)
	set("PAYGATE_API_BASE_URL", fc.APIBaseURL)
	set("PAYGATE_CURRENCY", fc.Currency)
	set("PAYGATE_HOST", fc.Host)
	set("PAYGATE_PORT", fc.Port)
	set("PAYGATE_STATIC_DIR", fc.StaticDir)
	set("PAYGATE_DB_PATH", fc.DBPath)
	set("PAYGATE_SECRET_KEY", fc.SecretKey)
	set("PAYGATE_UPSTREAM_TIMEOUT", fc.UpstreamTimeout)
	set("PAYGATE_LOG_LEVEL", fc.LogLevel)
	set("PAYGATE_LOG_FORMAT", fc.LogFormat)

	return nil
}

func build(values map[string]string) (*Config, error) {
	cfg := &Config{
		ClientID:   values["PAYGATE_CLIENT_ID"],
		APIKey:     values["PAYGATE_API_KEY"],
		APIBaseURL: values["PAYGATE_API_BASE_URL"],
		Currency:   values["PAYGATE_CURRENCY"],
		Host:       values["PAYGATE_HOST"],
		StaticDir:  values["PAYGATE_STATIC_DIR"],
		DBPath:     values["PAYGATE_DB_PATH"],
		LogLevel:   values["PAYGATE_LOG_LEVEL"],
		LogFormat:  values["PAYGATE_LOG_FORMAT"],
	}

	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: PAYGATE_CLIENT_ID is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: PAYGATE_API_KEY is required", ErrInvalidConfig)
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: PAYGATE_API_BASE_URL must be an absolute URL, got %q", ErrInvalidConfig, cfg.APIBaseURL)
	}

	if len(cfg.Currency) != 3 {
		return nil, fmt.Errorf("%w: PAYGATE_CURRENCY must be a 3-letter ISO code, got %q", ErrInvalidConfig, cfg.Currency)
	}

	port, err := parsePort(values["PAYGATE_PORT"])
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	timeout, err := time.ParseDuration(values["PAYGATE_UPSTREAM_TIMEOUT"])
	if err != nil {
		return nil, fmt.Errorf("%w: PAYGATE_UPSTREAM_TIMEOUT has invalid duration %q: %w", ErrInvalidConfig, values["PAYGATE_UPSTREAM_TIMEOUT"], err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: PAYGATE_UPSTREAM_TIMEOUT must be positive, got %s", ErrInvalidConfig, timeout)
	}
	cfg.UpstreamTimeout = timeout

	if v := values["PAYGATE_SECRET_KEY"]; v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: PAYGATE_SECRET_KEY must be hex-encoded: %w", ErrInvalidConfig, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%w: PAYGATE_SECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", ErrInvalidConfig, len(key))
		}
		cfg.SecretKey = key
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("%w: PAYGATE_LOG_FORMAT must be json or text, got %q", ErrInvalidConfig, cfg.LogFormat)
	}

	return cfg, nil
}

func parsePort(v string) (int, error) {
	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: PAYGATE_PORT must be between 1 and 65535, got %q", ErrInvalidConfig, v)
	}
	return port, nil
}
