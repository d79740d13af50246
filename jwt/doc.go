// Package jwt issues and verifies the bearer tokens handed out by couchjwt.
//
// A token carries the user's name and roles, the session id it is bound to
// (absent for session-less tokens) and its issue and expiry times. The first
// configured algorithm signs; every configured algorithm verifies, which lets
// a deployment rotate from one algorithm or key to another without logging
// everybody out.
package jwt
