package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	couchjwt "github.com/MrEthical07/couchjwt"
)

type resultContextKey struct{}

// ResultFromContext returns the validated token stored by [Guard].
func ResultFromContext(ctx context.Context) (*couchjwt.Result, bool) {
	res, ok := ctx.Value(resultContextKey{}).(*couchjwt.Result)
	return res, ok && res != nil
}

// Guard rejects requests without a valid bearer token. Rejections carry the
// classified error body with the matching status.
func Guard(engine *couchjwt.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, couchjwt.ErrEngineNotReady)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, couchjwt.ErrBadToken)
				return
			}

			ctx := couchjwt.WithClientIP(r.Context(), clientIP(r))
			ctx = couchjwt.WithUserAgent(ctx, r.UserAgent())
			res, err := engine.Info(ctx, token)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultContextKey{}, res)))
		})
	}
}

type errorBody struct {
	Error   bool          `json:"error"`
	Message string        `json:"message"`
	Status  int           `json:"status"`
	Code    couchjwt.Code `json:"code"`
}

// WriteError renders err as the JSON error body. Unclassified errors become
// a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	e := couchjwt.AsError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: true, Message: e.Message, Status: e.Status, Code: e.Code})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
