// Package reconcile computes how much money changes hands for a batch and
// whether a payment split settles it.
//
// A combined batch nets renewals against redemptions and settles only the
// signed remainder, in a single direction. Every function is pure.
package reconcile
