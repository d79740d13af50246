package couchjwt

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{name: "defaults with secret", mutate: func(*Config) {}, wantValid: true},
		{
			name:      "missing secret",
			mutate:    func(c *Config) { c.Token.Secret = nil },
			wantValid: false,
		},
		{
			name:      "zero ttl",
			mutate:    func(c *Config) { c.Token.TTL = 0 },
			wantValid: false,
		},
		{
			name:      "negative leeway",
			mutate:    func(c *Config) { c.Token.Leeway = -time.Second },
			wantValid: false,
		},
		{
			name:      "no algorithms",
			mutate:    func(c *Config) { c.Token.Algorithms = nil },
			wantValid: false,
		},
		{
			name: "eddsa without keys",
			mutate: func(c *Config) {
				c.Token.Algorithms = []string{"EdDSA"}
				c.Token.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "eddsa with public key only",
			mutate: func(c *Config) {
				c.Token.Algorithms = []string{"ed25519"}
				c.Token.Secret = nil
				c.Token.PublicKey = make([]byte, 32)
			},
			wantValid: true,
		},
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.Session.Backend = "cassandra" },
			wantValid: false,
		},
		{
			name:      "backend name is case insensitive",
			mutate:    func(c *Config) { c.Session.Backend = " Redis " },
			wantValid: true,
		},
		{
			name:      "negative session ttl",
			mutate:    func(c *Config) { c.Session.TTL = -time.Minute },
			wantValid: false,
		},
		{
			name:      "bad provider url",
			mutate:    func(c *Config) { c.Provider.URL = "ftp://couch" },
			wantValid: false,
		},
		{
			name: "refresh disabled keeps default best effort",
			mutate: func(c *Config) {
				c.RoleRefresh.Enabled = false
			},
			wantValid: true,
		},
		{
			name: "throttle without attempts",
			mutate: func(c *Config) {
				c.Security.LoginThrottle.Enabled = true
				c.Security.LoginThrottle.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "throttle without cooldown",
			mutate: func(c *Config) {
				c.Security.LoginThrottle.Enabled = true
				c.Security.LoginThrottle.Cooldown = 0
			},
			wantValid: false,
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigPolicies(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.RoleRefresh.Enabled || !cfg.RoleRefresh.BestEffort {
		t.Fatalf("role refresh defaults = %+v, want enabled and best effort", cfg.RoleRefresh)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Fatalf("session ttl = %v, want %v", cfg.Session.TTL, DefaultSessionTTL)
	}
}

func TestConfigProductionMode(t *testing.T) {
	cfg := validTestConfig()
	cfg.Security.ProductionMode = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("32 byte secret should pass: %v", err)
	}

	short := cfg
	short.Token.Secret = []byte("too-short")
	if err := short.Validate(); err == nil || !strings.Contains(err.Error(), "256 bits") {
		t.Fatalf("expected secret length error, got %v", err)
	}

	long := cfg
	long.Token.TTL = 48 * time.Hour
	if err := long.Validate(); err == nil {
		t.Fatal("expected ttl error")
	}

	none := cfg
	none.Session.Backend = "none"
	if err := none.Validate(); err == nil {
		t.Fatal("none store must be rejected for session-bound tokens in production")
	}
	none.Session.Sessionless = true
	if err := none.Validate(); err != nil {
		t.Fatalf("session-less production config: %v", err)
	}
}

func TestWithConfigCopiesKeyMaterial(t *testing.T) {
	cfg := validTestConfig()
	cfg.Token.Secret = append([]byte(nil), testSecret...)
	cfg.Token.Algorithms = []string{"HS256"}

	b := New().WithConfig(cfg)
	cfg.Token.Secret[0] = 'X'
	cfg.Token.Algorithms[0] = "none"

	if b.config.Token.Secret[0] != testSecret[0] {
		t.Fatal("builder shares the secret slice with the caller")
	}
	if b.config.Token.Algorithms[0] != "HS256" {
		t.Fatal("builder shares the algorithm slice with the caller")
	}
}
