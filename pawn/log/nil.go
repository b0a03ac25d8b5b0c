package log

import "context"

// NopLogger discards everything. It is what a component logs to when its
// Config leaves Logger nil, and what tests use when they do not assert on
// output.
type NopLogger struct{}

// NewNop returns a Logger that discards every entry.
func NewNop() Logger {
	return &NopLogger{}
}

func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger {
	return l
}

//nolint:ireturn
func (l *NopLogger) WithGroup(_ string) Logger {
	return l
}

// Enabled is always false, so callers that guard expensive fields skip them.
func (l *NopLogger) Enabled(_ Level) bool {
	return false
}

func (l *NopLogger) Sync(_ context.Context) error { return nil }

// OrNop lets constructors keep log.OrNop(cfg.Logger) and log unconditionally
// afterwards.
//
//nolint:ireturn
func OrNop(logger Logger) Logger {
	if logger == nil {
		return &NopLogger{}
	}

	return logger
}
