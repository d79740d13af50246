package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/internal"
	"github.com/go-resty/resty/v2"
)

// UserContext is the identity the provider vouches for.
type UserContext struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Authenticator checks a username and password with the identity provider.
type Authenticator interface {
	Verify(ctx context.Context, username, password string) (UserContext, error)
}

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc func(ctx context.Context, username, password string) (UserContext, error)

func (f AuthenticatorFunc) Verify(ctx context.Context, username, password string) (UserContext, error) {
	return f(ctx, username, password)
}

type sessionResponse struct {
	OK      bool        `json:"ok"`
	UserCtx UserContext `json:"userCtx"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// CouchAuthenticator verifies credentials against GET /_session.
type CouchAuthenticator struct {
	client *resty.Client
}

// NewCouchAuthenticator builds an authenticator for ep. The endpoint's own
// credentials are not used; each call authenticates as the user logging in.
func NewCouchAuthenticator(ep Endpoint, timeout time.Duration) *CouchAuthenticator {
	return NewCouchAuthenticatorWithClient(internal.NewHTTPClient(internal.HTTPClientConfig{
		BaseURL: ep.BaseURL,
		Timeout: timeout,
	}))
}

// NewCouchAuthenticatorWithClient uses client as is. client must carry the
// base URL and no default credentials.
func NewCouchAuthenticatorWithClient(client *resty.Client) *CouchAuthenticator {
	return &CouchAuthenticator{client: client}
}

func (a *CouchAuthenticator) Verify(ctx context.Context, username, password string) (UserContext, error) {
	if username == "" {
		return UserContext{}, autherr.BadAuth("Name or password is incorrect.")
	}

	var body sessionResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBasicAuth(username, password).
		SetResult(&body).
		SetError(&errorResponse{}).
		Get("/_session")
	if err != nil {
		return UserContext{}, autherr.Transport(err, internal.IsTimeout(err))
	}
	if err := classify(resp); err != nil {
		return UserContext{}, err
	}
	if body.UserCtx.Name == "" {
		return UserContext{}, autherr.BadAuth("Name or password is incorrect.")
	}
	body.UserCtx.Roles = cloneRoles(body.UserCtx.Roles)
	return body.UserCtx, nil
}

// classify maps a non-2xx provider response to the error taxonomy.
func classify(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	reason := ""
	if e, ok := resp.Error().(*errorResponse); ok && e != nil {
		reason = e.Reason
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return autherr.BadAuth(reason)
	}
	return autherr.Upstream(resp.StatusCode(), reason)
}

func cloneRoles(roles []string) []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}
