package couchjwt

import (
	"time"

	"github.com/MrEthical07/couchjwt/internal/flows"
	"github.com/MrEthical07/couchjwt/provider"
	"github.com/MrEthical07/couchjwt/session"
)

// UserCtx is the identity carried by a token.
type UserCtx struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Result is returned by every Engine operation. Token is the newly issued
// token for Login and Renew and the presented token for Info and Logout.
type Result struct {
	UserCtx   UserCtx
	Session   string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Authenticator verifies credentials against the identity provider.
type Authenticator = provider.Authenticator

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc = provider.AuthenticatorFunc

// RoleRefresher re-reads the roles of a user during renew.
type RoleRefresher = provider.RoleRefresher

// RefreshRequest is the input of a role refresh.
type RefreshRequest = provider.RefreshRequest

// RoleRefresherFunc adapts a function to [RoleRefresher].
type RoleRefresherFunc = provider.RoleRefresherFunc

// UserContext is what an [Authenticator] reports for valid credentials.
type UserContext = provider.UserContext

// SessionStore is the session existence store.
type SessionStore = session.Store

func newResult(r *flows.Result) *Result {
	if r == nil || r.Claims == nil {
		return nil
	}
	roles := r.Claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return &Result{
		UserCtx: UserCtx{
			Name:  r.Claims.Name,
			Roles: append([]string{}, roles...),
		},
		Session:   r.Claims.Session,
		Token:     r.Token,
		IssuedAt:  r.Claims.IssuedAtTime(),
		ExpiresAt: r.Claims.ExpiresAtTime(),
	}
}
