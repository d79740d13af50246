// Package couchjwt issues, validates, renews and revokes signed session
// tokens for users of a CouchDB server.
//
// CouchDB performs the credential check; couchjwt turns one successful check
// into a short-lived JWT bound to a server-side session. Tokens are renewed
// while their session is alive and stop working everywhere once the session
// is revoked.
//
// # Architecture boundaries
//
// couchjwt is the public surface. It exposes [Engine], [Builder], [Config],
// [Result] and the metrics and audit types. Flow orchestration, the login
// throttle and audit dispatch live under internal/. Sub-packages jwt,
// session and provider hold the token codec, the session backends and the
// CouchDB client; they can be used on their own. httpapi serves the Engine
// over gin, middleware guards net/http services with it, and metrics/export
// publishes its counters to Prometheus or OpenTelemetry.
//
// # Failures
//
// Every Engine operation returns either a *[Error] classified with a [Code]
// or, for failures that carry no classification, a generic 500 whose cause
// is logged and never returned to callers.
//
// # What this package must NOT do
//
//   - Store or verify passwords itself.
//   - Expose Redis clients or HTTP clients of its backends in its API.
//   - Import any sub-package that re-imports couchjwt.
package couchjwt
