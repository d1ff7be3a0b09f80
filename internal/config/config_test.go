package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	return &Config{
		Provider:      ProviderGemini,
		ModelName:     "googleai/gemini-2.5-flash",
		FiMCPEndpoint: DefaultFiMCPEndpoint,
		FiMCPTimeout:  DefaultFiMCPTimeout,
		SessionTTL:    DefaultSessionTTL,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "default config is valid",
			mutate: func(*Config) {},
		},
		{
			name:    "nil endpoint scheme",
			mutate:  func(c *Config) { c.FiMCPEndpoint = "localhost:8080" },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "empty endpoint",
			mutate:  func(c *Config) { c.FiMCPEndpoint = "" },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.FiMCPTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "excessive timeout",
			mutate:  func(c *Config) { c.FiMCPTimeout = time.Hour },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero session TTL",
			mutate:  func(c *Config) { c.SessionTTL = 0 },
			wantErr: ErrInvalidSessionTTL,
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "claude" },
			wantErr: ErrInvalidProvider,
		},
		{
			name: "postgres port out of range",
			mutate: func(c *Config) {
				c.PostgresHost = "localhost"
				c.PostgresPort = 70000
			},
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name: "postgres port ignored when host empty",
			mutate: func(c *Config) {
				c.PostgresHost = ""
				c.PostgresPort = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresHost = "db.internal"
	cfg.PostgresPort = 5433
	cfg.PostgresUser = "finagent"
	cfg.PostgresPassword = "s3cret"
	cfg.PostgresDBName = "finagent"
	cfg.PostgresSSLMode = "disable"

	got := cfg.PostgresURL()

	for _, want := range []string{
		"postgres://",
		"finagent:s3cret@db.internal:5433",
		"/finagent",
		"sslmode=disable",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PostgresURL() = %q, missing %q", got, want)
		}
	}
}

func TestUsePostgres(t *testing.T) {
	cfg := validConfig()
	if cfg.UsePostgres() {
		t.Error("UsePostgres() = true with empty host")
	}
	cfg.PostgresHost = "localhost"
	if !cfg.UsePostgres() {
		t.Error("UsePostgres() = false with host set")
	}
}
