// Package rate implements the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Usernames and
// addresses are hashed before they become part of a key. Key prefixes:
//   - "al:" counts failed logins per user.
//   - "ali:" counts failed logins per client IP.
//
// # What this package must NOT do
//
//   - Count attempts that failed for reasons other than rejected credentials
//     (the caller decides what counts).
//   - Be imported outside the couchjwt module.
package rate
