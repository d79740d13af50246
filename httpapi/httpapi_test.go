package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu    sync.Mutex
	roles map[string][]string
}

func (p *stubProvider) Verify(_ context.Context, name, password string) (couchjwt.UserContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	roles, ok := p.roles[name]
	if !ok || password != "secret" {
		return couchjwt.UserContext{}, couchjwt.ErrBadAuth
	}
	return couchjwt.UserContext{Name: name, Roles: roles}, nil
}

func (p *stubProvider) Refresh(_ context.Context, req couchjwt.RefreshRequest) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roles[req.Name], nil
}

func (p *stubProvider) setRoles(name string, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles[name] = roles
}

func newTestRouter(t *testing.T, opts Options) (*gin.Engine, *stubProvider) {
	t.Helper()
	p := &stubProvider{roles: map[string][]string{"alice": {"reader"}}}

	cfg := couchjwt.DefaultConfig()
	cfg.Token.Secret = []byte("httpapi-test-secret-httpapi-test-secret")
	engine, err := couchjwt.New().
		WithConfig(cfg).
		WithAuthenticator(p).
		WithRoleRefresher(p).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	opts.Engine = engine
	r, err := NewRouter(opts)
	require.NoError(t, err)
	return r, p
}

type jsonToken struct {
	OK      bool   `json:"ok"`
	UserCtx struct {
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	} `json:"userCtx"`
	Session string `json:"session"`
	Token   string `json:"token"`
	Issued  string `json:"issued"`
	Expires string `json:"expires"`
}

type jsonError struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
}

func do(r http.Handler, method, path, token string, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) jsonToken {
	t.Helper()
	rec := do(r, http.MethodPost, "/", "", `{"username":"alice","password":"secret"}`,
		map[string]string{"Content-Type": "application/json"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out jsonToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) jsonError {
	t.Helper()
	var out jsonError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLoginJSON(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	out := login(t, r)

	assert.True(t, out.OK)
	assert.Equal(t, "alice", out.UserCtx.Name)
	assert.Equal(t, []string{"reader"}, out.UserCtx.Roles)
	assert.NotEmpty(t, out.Session)
	assert.NotEmpty(t, out.Token)

	issued, err := time.Parse(time.RFC3339, out.Issued)
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, out.Expires)
	require.NoError(t, err)
	assert.Equal(t, couchjwt.DefaultConfig().Token.TTL, expires.Sub(issued))
}

func TestLoginFormAliases(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	form := url.Values{"name": {"alice"}, "pass": {"secret"}}
	rec := do(r, http.MethodPost, "/", "", form.Encode(),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	rec := do(r, http.MethodPost, "/", "", `{"username":"alice","password":"nope"}`,
		map[string]string{"Content-Type": "application/json"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.True(t, body.Error)
	assert.Equal(t, "EBADAUTH", body.Code)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
}

func TestLoginMalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	rec := do(r, http.MethodPost, "/", "", `{"username":`, map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EERROR", decodeError(t, rec).Code)
}

func TestInfoNegotiation(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	tok := login(t, r)

	rec := do(r, http.MethodGet, "/", tok.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info jsonToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, tok.Token, info.Token)
	assert.Equal(t, tok.Session, info.Session)

	rec = do(r, http.MethodGet, "/", tok.Token, "", map[string]string{"Accept": "*/*"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = do(r, http.MethodGet, "/", tok.Token, "", map[string]string{"Accept": MIMEJWT})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEJWT, rec.Header().Get("Content-Type"))
	assert.Equal(t, tok.Token, rec.Body.String())

	rec = do(r, http.MethodGet, "/", tok.Token, "", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Equal(t, "EERROR", decodeError(t, rec).Code)
}

func TestInfoMissingToken(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	rec := do(r, http.MethodGet, "/", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "EBADTOKEN", body.Code)
	assert.Equal(t, "Missing or invalid token.", body.Message)
}

func TestRenewRefreshesRoles(t *testing.T) {
	r, p := newTestRouter(t, Options{})
	tok := login(t, r)
	p.setRoles("alice", "reader", "writer")

	rec := do(r, http.MethodPut, "/", tok.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var renewed jsonToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))

	assert.Equal(t, []string{"reader", "writer"}, renewed.UserCtx.Roles)
	assert.Equal(t, tok.Session, renewed.Session)
	assert.NotEqual(t, tok.Token, renewed.Token)
}

func TestLogoutRevokesSession(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	tok := login(t, r)

	rec := do(r, http.MethodDelete, "/", tok.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(r, http.MethodGet, "/", tok.Token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "EBADSESSION", decodeError(t, rec).Code)

	rec = do(r, http.MethodDelete, "/", tok.Token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRoutesAndMethods(t *testing.T) {
	r, _ := newTestRouter(t, Options{Endpoint: "/_jwt"})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/elsewhere"},
		{http.MethodPatch, "/_jwt"},
	} {
		rec := do(r, tc.method, tc.path, "", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		body := decodeError(t, rec)
		assert.Equal(t, "EERROR", body.Code)
		assert.Equal(t, "Not Found", body.Message)
	}

	rec := do(r, http.MethodGet, "/_jwt", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	rec := do(r, http.MethodGet, "/", "", "", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = do(r, http.MethodGet, "/", "", "", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, Options{CORSOrigins: []string{"https://app.example.com"}})

	rec := do(r, http.MethodOptions, "/", "", "", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPut,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouterRequiresEngine(t *testing.T) {
	_, err := NewRouter(Options{})
	assert.Error(t, err)
}
