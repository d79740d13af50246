package middleware

import (
	"net/http"
	"slices"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/MrEthical07/couchjwt/autherr"
)

var errForbidden = autherr.HTTP(http.StatusForbidden)

// RequireRole must run inside [Guard]. It passes requests whose token holds
// at least one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := ResultFromContext(r.Context())
			if !ok {
				WriteError(w, couchjwt.ErrBadToken)
				return
			}
			for _, have := range res.UserCtx.Roles {
				if slices.Contains(roles, have) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, errForbidden)
		})
	}
}
