package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/jwt"
	"github.com/MrEthical07/couchjwt/session"
)

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	LogoutSuccess  int
	LogoutFailure  int
	SessionRevoked int
	RevokeConflict int
	BackendError   int
}

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	LogoutSuccess string
	LogoutFailure string
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Verify        func(string, jwt.VerifyOptions) (*jwt.Claims, error)
	SessionExists func(ctx context.Context, id string) (bool, error)
	RevokeSession func(ctx context.Context, id string) error
	Debug         func(string, ...any)

	MetricInc func(int)
	EmitAudit AuditFunc
	Metrics   LogoutMetrics
	Events    LogoutEvents
}

// RunLogout revokes the session of token. A session that is already gone
// fails EBADSESSION, so a second logout with the same token is rejected.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) (*Result, error) {
	metricInc := orNoopMetric(deps.MetricInc)
	emitAudit := orNoopAudit(deps.EmitAudit)
	if deps.Debug == nil {
		deps.Debug = func(string, ...any) {}
	}

	fail := func(name, session string, err error) (*Result, error) {
		metricInc(deps.Metrics.LogoutFailure)
		emitAudit(ctx, deps.Events.LogoutFailure, false, name, session, err, nil)
		return nil, err
	}

	claims, err := deps.Verify(token, jwt.VerifyOptions{IgnoreExpiration: true})
	if err != nil {
		return fail("", "", err)
	}
	if claims.Session == "" {
		return fail(claims.Name, "", autherr.MissingSession())
	}
	if err := checkSession(ctx, claims.Session, deps.SessionExists, deps.Metrics.BackendError, metricInc); err != nil {
		return fail(claims.Name, claims.Session, err)
	}

	if err := deps.RevokeSession(ctx, claims.Session); err != nil {
		if !errors.Is(err, session.ErrRevokeConflict) {
			metricInc(deps.Metrics.BackendError)
			return fail(claims.Name, claims.Session, autherr.OrBackend(err))
		}
		// A concurrent revoke of the same session won the race.
		metricInc(deps.Metrics.RevokeConflict)
		deps.Debug("revoke conflict treated as revoked", "session", claims.Session)
	} else {
		metricInc(deps.Metrics.SessionRevoked)
	}

	metricInc(deps.Metrics.LogoutSuccess)
	emitAudit(ctx, deps.Events.LogoutSuccess, true, claims.Name, claims.Session, nil, nil)
	return &Result{Token: token, Claims: claims}, nil
}
