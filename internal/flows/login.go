package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/jwt"
	"github.com/MrEthical07/couchjwt/provider"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	SessionCreated   int
	BackendError     int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	// Sessionless issues tokens that are not bound to a stored session.
	Sessionless bool

	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(ctx context.Context, username, ip string) error
	IncrementLoginRate func(ctx context.Context, username, ip string) error
	ResetLoginRate     func(ctx context.Context, username, ip string) error

	Authenticate  func(ctx context.Context, username, password string) (provider.UserContext, error)
	NewSessionID  func() (string, error)
	CreateSession func(ctx context.Context, id string) error
	IssueToken    func(name string, roles []string, session string) (string, *jwt.Claims, error)
	Warn          func(string, ...any)

	MetricInc func(int)
	EmitAudit AuditFunc
	Metrics   LoginMetrics
	Events    LoginEvents
}

// RunLogin authenticates with the identity provider, creates a session and
// issues a token bound to it. No token is handed out unless the session was
// stored.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*Result, error) {
	metricInc := orNoopMetric(deps.MetricInc)
	emitAudit := orNoopAudit(deps.EmitAudit)
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	ip := ""
	if deps.ClientIPFromContext != nil {
		ip = deps.ClientIPFromContext(ctx)
	}

	rateLimited := func(err error) (*Result, error) {
		metricInc(deps.Metrics.LoginRateLimited)
		emitAudit(ctx, deps.Events.LoginRateLimited, false, username, "", err, nil)
		return nil, err
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, username, ip); err != nil {
			return rateLimited(err)
		}
	}

	user, err := deps.Authenticate(ctx, username, password)
	if err != nil {
		// Only rejected credentials count against the throttle; an
		// unreachable provider says nothing about the caller.
		if errors.Is(err, autherr.ErrBadAuth) && deps.IncrementLoginRate != nil {
			if rerr := deps.IncrementLoginRate(ctx, username, ip); rerr != nil {
				return rateLimited(rerr)
			}
		}
		metricInc(deps.Metrics.LoginFailure)
		emitAudit(ctx, deps.Events.LoginFailure, false, username, "", err, func() map[string]string {
			return map[string]string{"reason": "authenticate"}
		})
		return nil, err
	}

	sessionID := ""
	if !deps.Sessionless {
		sessionID, err = deps.NewSessionID()
		if err != nil {
			metricInc(deps.Metrics.LoginFailure)
			return nil, err
		}
		if err := deps.CreateSession(ctx, sessionID); err != nil {
			err = autherr.OrBackend(err)
			metricInc(deps.Metrics.BackendError)
			metricInc(deps.Metrics.LoginFailure)
			emitAudit(ctx, deps.Events.LoginFailure, false, user.Name, sessionID, err, func() map[string]string {
				return map[string]string{"reason": "session_create"}
			})
			return nil, err
		}
		metricInc(deps.Metrics.SessionCreated)
	}

	token, claims, err := deps.IssueToken(user.Name, user.Roles, sessionID)
	if err != nil {
		metricInc(deps.Metrics.LoginFailure)
		emitAudit(ctx, deps.Events.LoginFailure, false, user.Name, sessionID, err, func() map[string]string {
			return map[string]string{"reason": "issue_token"}
		})
		return nil, err
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, username, ip); err != nil {
			deps.Warn("login throttle reset failed", "user", username, "error", err)
		}
	}
	metricInc(deps.Metrics.LoginSuccess)
	emitAudit(ctx, deps.Events.LoginSuccess, true, user.Name, sessionID, nil, nil)
	return &Result{Token: token, Claims: claims}, nil
}
