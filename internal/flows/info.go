package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/jwt"
)

// InfoMetrics carries metric IDs needed by the info flow.
type InfoMetrics struct {
	InfoSuccess  int
	InfoFailure  int
	ExpiredToken int
	BackendError int
}

// InfoEvents carries audit event names used by the info flow.
type InfoEvents struct {
	InfoFailure string
}

// InfoDeps captures token validation dependencies.
type InfoDeps struct {
	// Sessionless accepts tokens without a session on signature and expiry
	// alone.
	Sessionless bool

	Decode        func(string) (*jwt.Claims, error)
	Verify        func(string, jwt.VerifyOptions) (*jwt.Claims, error)
	SessionExists func(ctx context.Context, id string) (bool, error)

	MetricInc func(int)
	EmitAudit AuditFunc
	Metrics   InfoMetrics
	Events    InfoEvents
}

// RunInfo validates token: decode, session lookup, then full verification.
// The session is checked before the signature so that a revoked session is
// reported as such even when the token has also expired.
func RunInfo(ctx context.Context, token string, deps InfoDeps) (*Result, error) {
	metricInc := orNoopMetric(deps.MetricInc)
	emitAudit := orNoopAudit(deps.EmitAudit)

	fail := func(name, session string, err error) (*Result, error) {
		if errors.Is(err, autherr.ErrExpiredToken) {
			metricInc(deps.Metrics.ExpiredToken)
		}
		metricInc(deps.Metrics.InfoFailure)
		emitAudit(ctx, deps.Events.InfoFailure, false, name, session, err, nil)
		return nil, err
	}

	decoded, err := deps.Decode(token)
	if err != nil {
		return fail("", "", err)
	}

	if decoded.Session == "" {
		if !deps.Sessionless {
			return fail(decoded.Name, "", autherr.MissingSession())
		}
	} else {
		if err := checkSession(ctx, decoded.Session, deps.SessionExists, deps.Metrics.BackendError, metricInc); err != nil {
			return fail(decoded.Name, decoded.Session, err)
		}
	}

	claims, err := deps.Verify(token, jwt.VerifyOptions{})
	if err != nil {
		return fail(decoded.Name, decoded.Session, err)
	}
	metricInc(deps.Metrics.InfoSuccess)
	return &Result{Token: token, Claims: claims}, nil
}

// checkSession fails EBADSESSION when the store does not know id and
// EBACKEND when the store could not answer.
func checkSession(ctx context.Context, id string, exists func(context.Context, string) (bool, error), backendMetric int, metricInc func(int)) error {
	ok, err := exists(ctx, id)
	if err != nil {
		metricInc(backendMetric)
		return autherr.OrBackend(err)
	}
	if !ok {
		return autherr.InvalidSession()
	}
	return nil
}
