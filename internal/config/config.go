// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, FINAGENT_ prefix)
//  2. Config file (~/.finagent/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider and model selection for the assistant
//   - FiMCP: endpoint and timeout for the Fi MCP data service
//   - Session: credential TTL and optional Postgres persistence
//   - Observability: OTLP trace exporter endpoint
//
// Security: the Postgres password is never logged; the config directory
// uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidEndpoint indicates the Fi MCP endpoint is not a valid URL.
	ErrInvalidEndpoint = errors.New("invalid Fi MCP endpoint")

	// ErrInvalidTimeout indicates the Fi MCP call timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid Fi MCP timeout")

	// ErrInvalidSessionTTL indicates the session TTL is out of range.
	ErrInvalidSessionTTL = errors.New("invalid session TTL")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
)

const (
	// DefaultFiMCPEndpoint is the local fi-mcp dev server stream endpoint.
	DefaultFiMCPEndpoint = "http://localhost:8080/mcp/stream"

	// DefaultFiMCPTimeout bounds a single remote tool call. The remote call
	// is the only suspension point in the turn pipeline, so it must never
	// wait forever.
	DefaultFiMCPTimeout = 30 * time.Second

	// DefaultSessionTTL matches the Fi MCP session lifetime of 30 minutes.
	DefaultSessionTTL = 30 * time.Minute
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: the Postgres password is sensitive; never log the full Config.
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider"`   // "gemini" (default)
	ModelName string `mapstructure:"model_name"` // e.g. "googleai/gemini-2.5-flash"

	// Fi MCP data service
	FiMCPEndpoint string        `mapstructure:"fi_mcp_endpoint"`
	FiMCPTimeout  time.Duration `mapstructure:"fi_mcp_timeout"`

	// Session store
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// Optional Postgres persistence for sessions.
	// When PostgresHost is empty the in-memory store is used.
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Observability: OTLP HTTP trace collector (empty = tracing disabled)
	OTLPAgentHost string `mapstructure:"otlp_agent_host"`
	ServiceName   string `mapstructure:"service_name"`
	Environment   string `mapstructure:"environment"`

	// HTTP server
	ServeAddr string `mapstructure:"serve_addr"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".finagent")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	v.SetEnvPrefix("FINAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults + env carry the day.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "googleai/gemini-2.5-flash")

	v.SetDefault("fi_mcp_endpoint", DefaultFiMCPEndpoint)
	v.SetDefault("fi_mcp_timeout", DefaultFiMCPTimeout)

	v.SetDefault("session_ttl", DefaultSessionTTL)

	v.SetDefault("postgres_host", "")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "finagent")
	v.SetDefault("postgres_db_name", "finagent")
	v.SetDefault("postgres_ssl_mode", "prefer")

	v.SetDefault("otlp_agent_host", "")
	v.SetDefault("service_name", "finagent")
	v.SetDefault("environment", "dev")

	v.SetDefault("serve_addr", "127.0.0.1:3400")
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Provider)
	}

	u, err := url.Parse(c.FiMCPEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.FiMCPEndpoint)
	}

	if c.FiMCPTimeout <= 0 || c.FiMCPTimeout > 5*time.Minute {
		return fmt.Errorf("%w: %s (must be in (0, 5m])", ErrInvalidTimeout, c.FiMCPTimeout)
	}

	if c.SessionTTL <= 0 || c.SessionTTL > 24*time.Hour {
		return fmt.Errorf("%w: %s (must be in (0, 24h])", ErrInvalidSessionTTL, c.SessionTTL)
	}

	if c.PostgresHost != "" && (c.PostgresPort < 1 || c.PostgresPort > 65535) {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	return nil
}

// UsePostgres reports whether the persistent session store is configured.
func (c *Config) UsePostgres() bool {
	return c.PostgresHost != ""
}

// PostgresURL returns the connection URL in postgres:// form,
// suitable for both pgxpool and golang-migrate.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   c.PostgresDBName,
	}
	q := url.Values{}
	if c.PostgresSSLMode != "" {
		q.Set("sslmode", c.PostgresSSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
