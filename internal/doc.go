// Package internal contains helpers that are private to couchjwt: the pooled
// CouchDB HTTP client shared by the identity provider and the document-store
// session backend, and key hashing for Redis-backed counters.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: flow orchestrators for every Engine operation
//   - rate: Redis-backed login throttle
//   - serverconfig: layered configuration for the HTTP server command
//
// # What this package must NOT do
//
//   - Export types that appear in the public couchjwt API.
//   - Be imported by any package outside the couchjwt module.
package internal
