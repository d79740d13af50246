package couchjwt

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/couchjwt/autherr"
	internalaudit "github.com/MrEthical07/couchjwt/internal/audit"
	"github.com/MrEthical07/couchjwt/internal/flows"
	"github.com/MrEthical07/couchjwt/internal/rate"
	"github.com/MrEthical07/couchjwt/jwt"
	"github.com/MrEthical07/couchjwt/provider"
	"github.com/MrEthical07/couchjwt/session"
	"github.com/hashicorp/go-hclog"
)

// Engine runs the token and session lifecycle. It is safe for concurrent
// use once returned by [Builder.Build].
type Engine struct {
	config        Config
	codec         *jwt.Codec
	store         session.Store
	backend       string
	authenticator provider.Authenticator
	refresher     provider.RoleRefresher
	rateLimiter   *rate.Limiter
	audit         *internalaudit.Dispatcher
	metrics       *Metrics
	logger        hclog.Logger
	flows         flows.Service
	closers       []io.Closer
}

// Close drains pending audit events and releases session store resources
// the engine owns.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.audit != nil {
		e.audit.Close()
	}
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// AuditDropped reports audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TokenTTL is the lifetime of issued tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.codec == nil {
		return 0
	}
	return e.codec.TTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login checks username and password with the identity provider, opens a
// session and returns a token bound to it.
//
// Failures: EBADAUTH, EUPSTREAM and ETRANSPORT from the provider, EBACKEND
// when the session could not be stored (no token is issued then), and
// ERATELIMIT when the login throttle is active and exhausted.
func (e *Engine) Login(ctx context.Context, username, password string) (*Result, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res, err := e.flows.Login(ctx, username, password)
	e.observe(MetricLoginLatency, start)
	return e.finish("login", res, err)
}

// Info validates token: its session must exist, its signature must be good
// and it must not have expired.
func (e *Engine) Info(ctx context.Context, token string) (*Result, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res, err := e.flows.Info(ctx, token)
	e.observe(MetricInfoLatency, start)
	return e.finish("info", res, err)
}

// Renew issues a new token for the session of token with freshly read roles.
// An expired token is accepted while its session is alive. The presented
// token stays valid until it expires.
func (e *Engine) Renew(ctx context.Context, token string) (*Result, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res, err := e.flows.Renew(ctx, token)
	e.observe(MetricRenewLatency, start)
	return e.finish("renew", res, err)
}

// Logout revokes the session of token. Every token of that session fails
// EBADSESSION afterwards, including on a second Logout.
func (e *Engine) Logout(ctx context.Context, token string) (*Result, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res, err := e.flows.Logout(ctx, token)
	e.observe(MetricLogoutLatency, start)
	return e.finish("logout", res, err)
}

func (e *Engine) finish(op string, res *flows.Result, err error) (*Result, error) {
	if err != nil {
		return nil, e.classify(op, err)
	}
	return newResult(res), nil
}

// classify passes classified failures through and hides everything else
// behind a generic 500, logging the cause.
func (e *Engine) classify(op string, err error) error {
	if typed, ok := autherr.As(err); ok {
		if typed.Code == autherr.CodeBackend {
			e.logger.Error("session backend failure", "op", op, "backend", e.backend, "error", err)
		} else {
			e.logger.Debug("request rejected", "op", op, "code", typed.Code, "error", err)
		}
		return err
	}
	e.metricInc(MetricInternalError)
	e.logger.Error("unclassified failure", "op", op, "error", err)
	return autherr.Internal(err)
}

func (e *Engine) roleRefreshSuppressed(ctx context.Context, req provider.RefreshRequest, err error) {
	e.metricInc(MetricRoleRefreshSuppressed)
	e.logger.Warn("role refresh failed, keeping token roles",
		"user", req.Name, "session", req.Session, "request_id", requestIDFromContext(ctx), "error", err)
	e.emitAudit(ctx, AuditRoleRefreshSuppressed, false, req.Name, req.Session, err, nil)
}
