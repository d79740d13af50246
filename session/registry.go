package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MrEthical07/couchjwt/internal"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// Backend names a session store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendNone     Backend = "none"
	BackendRedis    Backend = "redis"
	BackendCouch    Backend = "couch"
	BackendPostgres Backend = "postgres"
)

// ErrUnknownBackend is returned for backend names missing from the registry.
var ErrUnknownBackend = errors.New("unknown session backend")

// Options carries the settings of every backend; each factory reads only its
// own section.
type Options struct {
	Logger      hclog.Logger
	Development bool
	// TTL bounds the lifetime of a session in backends that support expiry.
	// Zero keeps sessions until revoked.
	TTL time.Duration

	Redis    RedisOptions
	Couch    CouchOptions
	Postgres PostgresOptions
}

type RedisOptions struct {
	// URL takes precedence over Addr/Password/DB, e.g. redis://:pw@host:6379/2.
	URL      string
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Client, when set, is used as is and not closed by the store.
	Client redis.UniversalClient
}

type CouchOptions struct {
	BaseURL  string
	Username string
	Password string
	DB       string
	Timeout  time.Duration
	// Client, when set, replaces the connection settings above.
	Client *resty.Client
}

type PostgresOptions struct {
	DSN   string
	Table string
	// DB, when set, is used as is and not closed by the store.
	DB *sql.DB
}

// Factory constructs a store from options.
type Factory func(ctx context.Context, opts Options) (Store, error)

var factories = map[Backend]Factory{
	BackendMemory:   openMemory,
	BackendNone:     openNone,
	BackendRedis:    openRedis,
	BackendCouch:    openCouch,
	BackendPostgres: openPostgres,
}

// Backends lists the registered backend names in lexical order.
func Backends() []Backend {
	out := make([]Backend, 0, len(factories))
	for b := range factories {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseBackend resolves a configured name. The empty name selects memory.
func ParseBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return BackendMemory, nil
	}
	b := Backend(name)
	if _, ok := factories[b]; !ok {
		return "", fmt.Errorf("%w: %q (known: %v)", ErrUnknownBackend, name, Backends())
	}
	return b, nil
}

// Open constructs the named backend.
func Open(ctx context.Context, backend Backend, opts Options) (Store, error) {
	factory, ok := factories[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	opts.Logger = opts.Logger.Named("session." + string(backend))
	return factory(ctx, opts)
}

func openMemory(_ context.Context, opts Options) (Store, error) {
	return NewMemory(MemoryConfig{
		TTL:         opts.TTL,
		Development: opts.Development,
		Logger:      opts.Logger,
	}), nil
}

func openNone(_ context.Context, opts Options) (Store, error) {
	return NewNone(opts.Logger, !opts.Development), nil
}

func openRedis(ctx context.Context, opts Options) (Store, error) {
	prefix := opts.Redis.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if opts.Redis.Client != nil {
		return NewRedis(opts.Redis.Client, prefix, opts.TTL), nil
	}

	var ropts *redis.Options
	if opts.Redis.URL != "" {
		parsed, err := redis.ParseURL(opts.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		ropts = parsed
	} else {
		addr := opts.Redis.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		ropts = &redis.Options{Addr: addr, Password: opts.Redis.Password, DB: opts.Redis.DB}
	}

	// go-redis selects Options.DB on every new connection, so the logical
	// namespace survives reconnects.
	logger := opts.Logger
	db := ropts.DB
	ropts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		logger.Debug("redis connection established", "addr", ropts.Addr, "db", db)
		return nil
	}

	client := redis.NewClient(ropts)
	store := NewRedis(client, prefix, opts.TTL)
	store.owned = true
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

func openCouch(ctx context.Context, opts Options) (Store, error) {
	client := opts.Couch.Client
	if client == nil {
		if opts.Couch.BaseURL == "" {
			return nil, errors.New("couch session store requires a base URL")
		}
		client = internal.NewHTTPClient(internal.HTTPClientConfig{
			BaseURL:  opts.Couch.BaseURL,
			Username: opts.Couch.Username,
			Password: opts.Couch.Password,
			Timeout:  opts.Couch.Timeout,
		})
	}
	return NewCouch(ctx, client, opts.Couch.DB)
}

func openPostgres(ctx context.Context, opts Options) (Store, error) {
	db := opts.Postgres.DB
	owned := false
	if db == nil {
		if opts.Postgres.DSN == "" {
			return nil, errors.New("postgres session store requires a DSN")
		}
		var err error
		db, err = sql.Open("postgres", opts.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, unavailable("postgres ping", err)
		}
		owned = true
	}

	store := NewPostgres(db, opts.Postgres.Table, opts.TTL)
	store.owned = owned
	if err := store.EnsureSchema(ctx); err != nil {
		if owned {
			_ = db.Close()
		}
		return nil, err
	}
	return store, nil
}
