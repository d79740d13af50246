// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunLogin, RunInfo, RunRenew, RunLogout) accepts a typed
// dependency struct of functions and returns results without side effects
// beyond those dependencies. Tests drive the flows with plain closures; the
// Engine builds the dependency sets once and stays thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the authenticator, session store, token codec,
// role refresher, login throttle, audit and metrics. They do NOT own any of
// these resources. Errors coming out of a dependency are already classified
// and are returned unchanged; flows only add a classification where a step
// produced none (session store failures become EBACKEND).
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import couchjwt (to avoid import cycles).
//   - Cache session existence: every check goes to the store.
package flows
