// Package backend declares the calls the console core makes to the pawnshop
// system of record, a circuit-breaker decorator for them, and Memory, an
// in-process implementation used by tests and local runs.
package backend
