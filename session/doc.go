// Package session provides the pluggable session existence store used by
// couchjwt to make bearer tokens revocable.
//
// A session is nothing more than a registered 128-bit id. The manager asks
// only three questions of a [Store]: create it, does it exist, revoke it.
// Backends decide how the id is persisted and whether it expires on its own.
//
// # Backends
//
//   - [MemoryStore]: process-local map, development only.
//   - [NoneStore]: accepts every id; for deployments that do not revoke.
//   - [RedisStore]: prefixed keys with optional TTL.
//   - [CouchStore]: one CouchDB document per session, revision-checked delete.
//   - [PostgresStore]: one row per session with optional expiry.
//
// Backends are selected through the static registry in registry.go.
//
// # What this package must NOT do
//
//   - Import couchjwt or jwt (no upward imports).
//   - Cache existence answers; every Exists call reaches the backend.
package session
