package middleware

import (
	"regexp"
	"strings"
)

var bearerPattern = regexp.MustCompile(`^Bearer\s*(.*)`)

// BearerToken extracts the token from an Authorization header value. It
// reports false when the header is not a bearer header or carries no token.
func BearerToken(header string) (string, bool) {
	m := bearerPattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return "", false
	}
	token := strings.TrimSpace(m[1])
	return token, token != ""
}
