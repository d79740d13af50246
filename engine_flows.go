package couchjwt

import (
	"context"
	"errors"

	"github.com/MrEthical07/couchjwt/internal/flows"
	"github.com/MrEthical07/couchjwt/internal/rate"
	"github.com/MrEthical07/couchjwt/session"
)

func (e *Engine) buildFlows() flows.Service {
	sessionless := e.config.Session.Sessionless
	metricInc := func(id int) { e.metricInc(MetricID(id)) }

	login := flows.LoginDeps{
		Sessionless:         sessionless,
		ClientIPFromContext: clientIPFromContext,
		Authenticate:        e.authenticator.Verify,
		NewSessionID:        session.NewID,
		CreateSession:       e.store.Create,
		IssueToken:          e.codec.Issue,
		Warn:                e.logger.Warn,
		MetricInc:           metricInc,
		EmitAudit:           e.emitAudit,
		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
			BackendError:     int(MetricBackendError),
		},
		Events: flows.LoginEvents{
			LoginSuccess:     AuditLoginSuccess,
			LoginFailure:     AuditLoginFailure,
			LoginRateLimited: AuditLoginRateLimited,
		},
	}
	if e.rateLimiter != nil {
		login.CheckLoginRate = e.throttle(e.rateLimiter.CheckLogin)
		login.IncrementLoginRate = e.throttle(e.rateLimiter.IncrementLogin)
		login.ResetLoginRate = e.rateLimiter.ResetLogin
	}

	return flows.New(flows.Deps{
		Login: login,
		Info: flows.InfoDeps{
			Sessionless:   sessionless,
			Decode:        e.codec.Decode,
			Verify:        e.codec.Verify,
			SessionExists: e.store.Exists,
			MetricInc:     metricInc,
			EmitAudit:     e.emitAudit,
			Metrics: flows.InfoMetrics{
				InfoSuccess:  int(MetricInfoSuccess),
				InfoFailure:  int(MetricInfoFailure),
				ExpiredToken: int(MetricExpiredToken),
				BackendError: int(MetricBackendError),
			},
			Events: flows.InfoEvents{
				InfoFailure: AuditInfoFailure,
			},
		},
		Renew: flows.RenewDeps{
			Verify:        e.codec.Verify,
			SessionExists: e.store.Exists,
			RefreshRoles:  e.refresher.Refresh,
			IssueToken:    e.codec.Issue,
			MetricInc:     metricInc,
			EmitAudit:     e.emitAudit,
			Metrics: flows.RenewMetrics{
				RenewSuccess: int(MetricRenewSuccess),
				RenewFailure: int(MetricRenewFailure),
				BackendError: int(MetricBackendError),
			},
			Events: flows.RenewEvents{
				RenewSuccess: AuditRenewSuccess,
				RenewFailure: AuditRenewFailure,
			},
		},
		Logout: flows.LogoutDeps{
			Verify:        e.codec.Verify,
			SessionExists: e.store.Exists,
			RevokeSession: e.store.Revoke,
			Debug:         e.logger.Debug,
			MetricInc:     metricInc,
			EmitAudit:     e.emitAudit,
			Metrics: flows.LogoutMetrics{
				LogoutSuccess:  int(MetricLogoutSuccess),
				LogoutFailure:  int(MetricLogoutFailure),
				SessionRevoked: int(MetricSessionRevoked),
				RevokeConflict: int(MetricRevokeConflict),
				BackendError:   int(MetricBackendError),
			},
			Events: flows.LogoutEvents{
				LogoutSuccess: AuditLogoutSuccess,
				LogoutFailure: AuditLogoutFailure,
			},
		},
	})
}

// throttle lets logins through when the counter store is down; an
// unavailable throttle must not lock everybody out.
func (e *Engine) throttle(check func(ctx context.Context, username, ip string) error) func(ctx context.Context, username, ip string) error {
	return func(ctx context.Context, username, ip string) error {
		err := check(ctx, username, ip)
		if err != nil && errors.Is(err, rate.ErrRedisUnavailable) {
			e.logger.Warn("login throttle unavailable", "error", err)
			return nil
		}
		return err
	}
}
