package provider

import (
	"context"
	"time"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/MrEthical07/couchjwt/internal"
	"github.com/go-resty/resty/v2"
)

// RefreshRequest describes the token holder whose roles are re-read.
type RefreshRequest struct {
	Name  string
	Roles []string
	// Token is the caller's current token, used as a bearer credential.
	Token string
	// Session is the session id the renewed token stays bound to.
	Session string
}

// RoleRefresher returns the current roles of a token holder.
type RoleRefresher interface {
	Refresh(ctx context.Context, req RefreshRequest) ([]string, error)
}

// RoleRefresherFunc adapts a function to [RoleRefresher].
type RoleRefresherFunc func(ctx context.Context, req RefreshRequest) ([]string, error)

func (f RoleRefresherFunc) Refresh(ctx context.Context, req RefreshRequest) ([]string, error) {
	return f(ctx, req)
}

// StaticRoles keeps the roles already carried by the token.
type StaticRoles struct{}

func (StaticRoles) Refresh(_ context.Context, req RefreshRequest) ([]string, error) {
	return cloneRoles(req.Roles), nil
}

// CouchRoleRefresher reads the user document from the _users database.
type CouchRoleRefresher struct {
	client *resty.Client
}

func NewCouchRoleRefresher(ep Endpoint, timeout time.Duration) *CouchRoleRefresher {
	return NewCouchRoleRefresherWithClient(internal.NewHTTPClient(internal.HTTPClientConfig{
		BaseURL: ep.BaseURL,
		Timeout: timeout,
	}))
}

func NewCouchRoleRefresherWithClient(client *resty.Client) *CouchRoleRefresher {
	return &CouchRoleRefresher{client: client}
}

func (r *CouchRoleRefresher) Refresh(ctx context.Context, req RefreshRequest) ([]string, error) {
	var doc struct {
		Roles []string `json:"roles"`
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetAuthToken(req.Token).
		SetPathParam("name", req.Name).
		SetResult(&doc).
		SetError(&errorResponse{}).
		Get("/_users/org.couchdb.user:{name}")
	if err != nil {
		return nil, autherr.Transport(err, internal.IsTimeout(err))
	}
	if err := classify(resp); err != nil {
		return nil, err
	}
	return cloneRoles(doc.Roles), nil
}

// BestEffort is the fail-open refresh policy: when next fails, the error is
// handed to onSuppressed, together with the renew's context, and the token's
// existing roles are kept. Renewal therefore never fails because the
// provider is down, at the price of possibly stale roles.
func BestEffort(next RoleRefresher, onSuppressed func(context.Context, RefreshRequest, error)) RoleRefresher {
	return RoleRefresherFunc(func(ctx context.Context, req RefreshRequest) ([]string, error) {
		roles, err := next.Refresh(ctx, req)
		if err == nil {
			return roles, nil
		}
		if onSuppressed != nil {
			onSuppressed(ctx, req, err)
		}
		return cloneRoles(req.Roles), nil
	})
}
