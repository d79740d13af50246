package flows

import (
	"context"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/jwt"
	"github.com/MrEthical07/couchjwt/provider"
)

// RenewMetrics carries metric IDs needed by the renew flow.
type RenewMetrics struct {
	RenewSuccess int
	RenewFailure int
	BackendError int
}

// RenewEvents carries audit event names used by the renew flow.
type RenewEvents struct {
	RenewSuccess string
	RenewFailure string
}

// RenewDeps captures renew dependencies.
type RenewDeps struct {
	Verify        func(string, jwt.VerifyOptions) (*jwt.Claims, error)
	SessionExists func(ctx context.Context, id string) (bool, error)
	RefreshRoles  func(ctx context.Context, req provider.RefreshRequest) ([]string, error)
	IssueToken    func(name string, roles []string, session string) (string, *jwt.Claims, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Metrics   RenewMetrics
	Events    RenewEvents
}

// RunRenew issues a fresh token for the same session, with roles re-read
// from the identity provider. Expired tokens are accepted as long as their
// session is alive. The old token is not revoked.
func RunRenew(ctx context.Context, token string, deps RenewDeps) (*Result, error) {
	metricInc := orNoopMetric(deps.MetricInc)
	emitAudit := orNoopAudit(deps.EmitAudit)

	fail := func(name, session string, err error) (*Result, error) {
		metricInc(deps.Metrics.RenewFailure)
		emitAudit(ctx, deps.Events.RenewFailure, false, name, session, err, nil)
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

	roles := claims.Roles
	if deps.RefreshRoles != nil {
		roles, err = deps.RefreshRoles(ctx, provider.RefreshRequest{
			Name:    claims.Name,
			Roles:   claims.Roles,
			Token:   token,
			Session: claims.Session,
		})
		if err != nil {
			return fail(claims.Name, claims.Session, err)
		}
	}

	fresh, freshClaims, err := deps.IssueToken(claims.Name, roles, claims.Session)
	if err != nil {
		return fail(claims.Name, claims.Session, err)
	}
	metricInc(deps.Metrics.RenewSuccess)
	emitAudit(ctx, deps.Events.RenewSuccess, true, claims.Name, claims.Session, nil, nil)
	return &Result{Token: fresh, Claims: freshClaims}, nil
}
