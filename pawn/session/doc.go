// Package session manages the lifetime of a staff member's authenticated
// session at the console.
//
// The Manager polls remaining time on a fixed period and always recomputes it
// from the absolute expiry, so clock jumps and suspended processes are
// tolerated. A session moves through
//
//	Unauthenticated -> Active -> Warning -> Expired
//
// with Refreshing reachable from Active and Warning. A failed refresh expires
// the session at once. Expired is irreversible; only a new Authenticate
// produces a new session.
package session
