package flows

import (
	"context"

	"github.com/MrEthical07/couchjwt/jwt"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Login  LoginDeps
	Info   InfoDeps
	Renew  RenewDeps
	Logout LogoutDeps
}

// Result is what a successful flow hands back to the engine.
type Result struct {
	Token  string
	Claims *jwt.Claims
}

// AuditFunc records one audit event. metadata is only called when the event
// is actually kept.
type AuditFunc func(ctx context.Context, event string, success bool, user, session string, err error, metadata func() map[string]string)

func noopMetric(int) {}

func noopAudit(context.Context, string, bool, string, string, error, func() map[string]string) {}

func orNoopMetric(f func(int)) func(int) {
	if f == nil {
		return noopMetric
	}
	return f
}

func orNoopAudit(f AuditFunc) AuditFunc {
	if f == nil {
		return noopAudit
	}
	return f
}
