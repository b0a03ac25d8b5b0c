// Package log is the logging surface of lib-pawn: a small Logger interface,
// severity levels and typed fields.
//
// The zap package adapts it to go.uber.org/zap and masks secret-looking keys.
// Everything else in the module depends only on this package, and a nil
// Logger in any Config means OrNop.
package log
