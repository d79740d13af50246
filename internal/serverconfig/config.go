package serverconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/MrEthical07/couchjwt/provider"
	"github.com/MrEthical07/couchjwt/session"
)

const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 3000
	DefaultEndpoint = "/"
	DefaultLogLevel = "info"
	MetricsPath     = "/metrics"
)

var ErrMissingSecret = errors.New("a signing secret is required")

// Config is the server configuration. Field tags name the YAML key and the
// environment variable suffix after the COUCHJWT_ prefix.
type Config struct {
	Host        string   `yaml:"host" envconfig:"HOST"`
	Port        int      `yaml:"port" envconfig:"PORT"`
	Endpoint    string   `yaml:"endpoint" envconfig:"ENDPOINT"`
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
	Production  bool     `yaml:"production" envconfig:"PRODUCTION"`
	LogLevel    string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogJSON     bool     `yaml:"log_json" envconfig:"LOG_JSON"`

	CouchDB         string   `yaml:"couchdb" envconfig:"COUCHDB"`
	ProviderTimeout Duration `yaml:"provider_timeout" envconfig:"PROVIDER_TIMEOUT"`

	Secret         string   `yaml:"secret" envconfig:"SECRET"`
	Algorithms     []string `yaml:"algorithms" envconfig:"ALGORITHMS"`
	ExpiresIn      Duration `yaml:"expires_in" envconfig:"EXPIRES_IN"`
	Issuer         string   `yaml:"issuer" envconfig:"ISSUER"`
	Leeway         Duration `yaml:"leeway" envconfig:"LEEWAY"`
	PrivateKeyFile string   `yaml:"private_key_file" envconfig:"PRIVATE_KEY_FILE"`
	PublicKeyFile  string   `yaml:"public_key_file" envconfig:"PUBLIC_KEY_FILE"`

	Session     SessionConfig     `yaml:"session" envconfig:"SESSION"`
	RoleRefresh RoleRefreshConfig `yaml:"role_refresh" envconfig:"ROLE_REFRESH"`
	Throttle    ThrottleConfig    `yaml:"throttle" envconfig:"THROTTLE"`
	Audit       AuditConfig       `yaml:"audit" envconfig:"AUDIT"`
	Metrics     MetricsConfig     `yaml:"metrics" envconfig:"METRICS"`
}

// SessionConfig selects the session backend. TTL defaults to a day; an
// explicit 0 keeps sessions until logout.
type SessionConfig struct {
	Store       string   `yaml:"store" envconfig:"STORE"`
	TTL         Duration `yaml:"ttl" envconfig:"TTL"`
	Sessionless bool     `yaml:"sessionless" envconfig:"SESSIONLESS"`
	RedisURL    string   `yaml:"redis_url" envconfig:"REDIS_URL"`
	RedisPrefix string   `yaml:"redis_prefix" envconfig:"REDIS_PREFIX"`
	CouchDB     string   `yaml:"couch_db" envconfig:"COUCH_DB"`
	PostgresDSN string   `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	Table       string   `yaml:"table" envconfig:"TABLE"`
}

type RoleRefreshConfig struct {
	Enabled    bool `yaml:"enabled" envconfig:"ENABLED"`
	BestEffort bool `yaml:"best_effort" envconfig:"BEST_EFFORT"`
}

// ThrottleConfig enables the Redis login throttle; it reuses the session
// Redis URL unless RedisURL is set.
type ThrottleConfig struct {
	Enabled     bool     `yaml:"enabled" envconfig:"ENABLED"`
	MaxAttempts int      `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	Cooldown    Duration `yaml:"cooldown" envconfig:"COOLDOWN"`
	PerIP       bool     `yaml:"per_ip" envconfig:"PER_IP"`
	RedisURL    string   `yaml:"redis_url" envconfig:"REDIS_URL"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled" envconfig:"ENABLED"`
	BufferSize int  `yaml:"buffer_size" envconfig:"BUFFER_SIZE"`
}

type MetricsConfig struct {
	Enabled    bool `yaml:"enabled" envconfig:"ENABLED"`
	Histograms bool `yaml:"histograms" envconfig:"HISTOGRAMS"`
}

// Default returns the configuration used when no source overrides a field.
func Default() Config {
	engine := couchjwt.DefaultConfig()
	return Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Endpoint:        DefaultEndpoint,
		LogLevel:        DefaultLogLevel,
		CouchDB:         provider.DefaultURL,
		ProviderTimeout: Duration(engine.Provider.Timeout),
		Algorithms:      append([]string(nil), engine.Token.Algorithms...),
		ExpiresIn:       Duration(engine.Token.TTL),
		Session: SessionConfig{
			Store: string(session.BackendMemory),
			TTL:   Duration(engine.Session.TTL),
		},
		RoleRefresh: RoleRefreshConfig{
			Enabled:    engine.RoleRefresh.Enabled,
			BestEffort: engine.RoleRefresh.BestEffort,
		},
		Throttle: ThrottleConfig{
			MaxAttempts: engine.Security.LoginThrottle.MaxAttempts,
			Cooldown:    Duration(engine.Security.LoginThrottle.Cooldown),
		},
		Audit: AuditConfig{
			BufferSize: engine.Audit.BufferSize,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ThrottleRedisURL is the Redis URL the login throttle connects to.
func (c Config) ThrottleRedisURL() string {
	if c.Throttle.RedisURL != "" {
		return c.Throttle.RedisURL
	}
	return c.Session.RedisURL
}

// EngineConfig translates c into an engine configuration. Key files are read
// here; the engine validates everything else at build time.
func (c Config) EngineConfig() (couchjwt.Config, error) {
	cfg := couchjwt.DefaultConfig()

	cfg.Token.Secret = []byte(c.Secret)
	if len(c.Algorithms) > 0 {
		cfg.Token.Algorithms = append([]string(nil), c.Algorithms...)
	}
	cfg.Token.TTL = c.ExpiresIn.Duration()
	cfg.Token.Issuer = c.Issuer
	cfg.Token.Leeway = c.Leeway.Duration()

	if c.PrivateKeyFile != "" {
		key, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return couchjwt.Config{}, fmt.Errorf("read private key: %w", err)
		}
		cfg.Token.PrivateKey = key
	}
	if c.PublicKeyFile != "" {
		key, err := os.ReadFile(c.PublicKeyFile)
		if err != nil {
			return couchjwt.Config{}, fmt.Errorf("read public key: %w", err)
		}
		cfg.Token.PublicKey = key
	}
	if len(cfg.Token.Secret) == 0 && len(cfg.Token.PrivateKey) == 0 {
		return couchjwt.Config{}, ErrMissingSecret
	}

	cfg.Session.Backend = c.Session.Store
	cfg.Session.TTL = c.Session.TTL.Duration()
	cfg.Session.Sessionless = c.Session.Sessionless
	cfg.Session.Redis.URL = c.Session.RedisURL
	cfg.Session.Redis.Prefix = c.Session.RedisPrefix
	cfg.Session.Couch.DB = c.Session.CouchDB
	cfg.Session.Postgres.DSN = c.Session.PostgresDSN
	cfg.Session.Postgres.Table = c.Session.Table

	cfg.Provider.URL = c.CouchDB
	cfg.Provider.Timeout = c.ProviderTimeout.Duration()

	cfg.RoleRefresh.Enabled = c.RoleRefresh.Enabled
	cfg.RoleRefresh.BestEffort = c.RoleRefresh.BestEffort

	cfg.Security.ProductionMode = c.Production
	cfg.Security.LoginThrottle.Enabled = c.Throttle.Enabled
	cfg.Security.LoginThrottle.MaxAttempts = c.Throttle.MaxAttempts
	cfg.Security.LoginThrottle.Cooldown = c.Throttle.Cooldown.Duration()
	cfg.Security.LoginThrottle.EnableIPThrottle = c.Throttle.PerIP

	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Histograms

	return cfg, nil
}

// StartupTimeout bounds backend connection at startup.
const StartupTimeout = 15 * time.Second
