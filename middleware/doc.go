// Package middleware adapts a couchjwt Engine to net/http for services that
// sit behind the token issuer.
//
// # Guards
//
//   - [Guard]: validates the bearer token through Engine.Info and stores the
//     result in the request context.
//   - [RequireRole]: rejects requests whose validated token lacks a role.
//
// # What this package must NOT do
//
//   - Parse or sign tokens directly.
//   - Access session backends.
package middleware
