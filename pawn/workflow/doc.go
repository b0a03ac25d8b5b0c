// Package workflow implements the four-stage transaction pipeline a teller
// walks through before a batch of ticket operations is booked:
//
//	Selection -> Verification -> Payment -> Review -> Committed
//
// A Machine only moves forward when the current stage's guard holds, reports
// every unmet field at once, and rewinds itself whenever earlier data is
// edited so a batch is never committed against stale totals. Terminate ends a
// batch from outside, typically when the owning session expires.
package workflow
