// Package desk is the single owner of a teller's console state: one staff
// session and at most one open batch. It arbitrates between the two so that
// a session ending for any reason discards the batch before any in-flight
// call can publish a result.
package desk
