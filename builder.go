package couchjwt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/couchjwt/internal/audit"
	"github.com/MrEthical07/couchjwt/internal/rate"
	"github.com/MrEthical07/couchjwt/jwt"
	"github.com/MrEthical07/couchjwt/provider"
	"github.com/MrEthical07/couchjwt/session"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Each Builder builds at most one Engine.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store         session.Store
	authenticator provider.Authenticator
	refresher     provider.RoleRefresher
	auditSink     AuditSink
	logger        hclog.Logger
	now           func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the login throttle and, unless the
// configuration names its own connection, by the redis session store. The
// engine never closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore uses store instead of opening the configured backend. The
// engine closes it on Close when it implements io.Closer.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithAuthenticator replaces the CouchDB credential check.
func (b *Builder) WithAuthenticator(a provider.Authenticator) *Builder {
	b.authenticator = a
	return b
}

// WithRoleRefresher replaces the CouchDB role lookup used by renew. The
// BestEffort policy from the configuration still applies.
func (b *Builder) WithRoleRefresher(r provider.RoleRefresher) *Builder {
	b.refresher = r
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger hclog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for iat and exp.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build is BuildContext with a background context.
func (b *Builder) Build() (*Engine, error) {
	return b.BuildContext(context.Background())
}

// BuildContext validates the configuration and wires the engine. ctx bounds
// the connection checks of session backends opened here.
func (b *Builder) BuildContext(ctx context.Context) (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:     cloneBytes(cfg.Token.Secret),
		Algorithms: cfg.Token.Algorithms,
		TTL:        cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
		PrivateKey: cloneBytes(cfg.Token.PrivateKey),
		PublicKey:  cloneBytes(cfg.Token.PublicKey),
		Leeway:     cfg.Token.Leeway,
		Now:        b.now,
	})
	if err != nil {
		return nil, err
	}

	// -------- IDENTITY PROVIDER --------
	endpoint, err := provider.ParseURL(cfg.Provider.URL)
	if err != nil {
		return nil, err
	}
	authenticator := b.authenticator
	if authenticator == nil {
		authenticator = provider.NewCouchAuthenticator(endpoint, cfg.Provider.Timeout)
	}

	engine := &Engine{
		config:        cfg,
		codec:         codec,
		authenticator: authenticator,
		logger:        logger,
		metrics:       NewMetrics(cfg.Metrics),
		backend:       "custom",
	}

	// -------- ROLE REFRESH --------
	refresher := b.refresher
	switch {
	case refresher != nil:
	case cfg.RoleRefresh.Enabled:
		refresher = provider.NewCouchRoleRefresher(endpoint, cfg.Provider.Timeout)
	default:
		refresher = provider.StaticRoles{}
	}
	if cfg.RoleRefresh.BestEffort {
		refresher = provider.BestEffort(refresher, engine.roleRefreshSuppressed)
	}
	engine.refresher = refresher

	// -------- LOGIN THROTTLE --------
	if cfg.Security.LoginThrottle.Enabled {
		if b.redis == nil {
			return nil, errors.New("LoginThrottle requires a redis client")
		}
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Prefix:                cfg.Security.LoginThrottle.Prefix,
			EnableIPThrottle:      cfg.Security.LoginThrottle.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.LoginThrottle.MaxAttempts,
			LoginCooldownDuration: cfg.Security.LoginThrottle.Cooldown,
		})
	}

	// -------- SESSION STORE --------
	store := b.store
	switch {
	case store != nil:
	case cfg.Session.Sessionless:
		store = session.NoneStore{}
		engine.backend = string(session.BackendNone)
	default:
		backend, err := session.ParseBackend(cfg.Session.Backend)
		if err != nil {
			return nil, err
		}
		store, err = session.Open(ctx, backend, b.sessionOptions(cfg, endpoint, logger))
		if err != nil {
			return nil, fmt.Errorf("open %s session store: %w", backend, err)
		}
		engine.backend = string(backend)
	}
	engine.store = store
	if closer, ok := store.(io.Closer); ok {
		engine.closers = append(engine.closers, closer)
	}

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewLoggerSink(logger.Named("audit"))
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	engine.flows = engine.buildFlows()

	b.built = true
	logger.Debug("engine built", "backend", engine.backend, "sessionless", cfg.Session.Sessionless, "algorithms", cfg.Token.Algorithms)

	return engine, nil
}

func (b *Builder) sessionOptions(cfg Config, endpoint provider.Endpoint, logger hclog.Logger) session.Options {
	opts := session.Options{
		Logger:      logger,
		Development: !cfg.Security.ProductionMode,
		TTL:         cfg.Session.TTL,
		Redis:       cfg.Session.Redis,
		Couch:       cfg.Session.Couch,
		Postgres:    cfg.Session.Postgres,
	}
	if opts.Redis.Client == nil && opts.Redis.URL == "" && opts.Redis.Addr == "" && b.redis != nil {
		opts.Redis.Client = b.redis
	}
	// Sessions live on the identity provider's CouchDB unless told otherwise.
	if opts.Couch.Client == nil && opts.Couch.BaseURL == "" {
		opts.Couch.BaseURL = endpoint.BaseURL
		opts.Couch.Username = endpoint.Username
		opts.Couch.Password = endpoint.Password
	}
	if opts.Couch.Timeout == 0 {
		opts.Couch.Timeout = cfg.Provider.Timeout
	}
	return opts
}
