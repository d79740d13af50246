// Package provider talks to the identity provider that owns user accounts.
//
// couchjwt never checks passwords itself. [CouchAuthenticator] forwards the
// credentials to CouchDB's session endpoint and returns the user context it
// answers with; [CouchRoleRefresher] re-reads a user's roles on token renewal.
// Failures are classified here (EBADAUTH, EUPSTREAM, ETRANSPORT) and passed
// through unchanged by the manager.
package provider
