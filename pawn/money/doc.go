// Package money provides the decimal amount type used for every monetary
// value handled by the console: ticket amounts, payment splits, change and
// authorization thresholds.
//
// Amounts are exact decimals and always render with two fractional digits.
package money
