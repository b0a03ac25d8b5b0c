package log

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is what the session manager, the workflow machine, the desk and the
// backends log through. Components never build one themselves: they take it
// from their Config and fall back to OrNop.
type Logger interface {
	Log(ctx context.Context, level Level, msg string, fields ...Field)
	With(fields ...Field) Logger
	WithGroup(name string) Logger
	Enabled(level Level) bool
	Sync(ctx context.Context) error
}

// Level orders entries from LevelError (most severe, zero) to LevelDebug.
// A console run at LevelInfo records session transitions and commits but not
// the per-keystroke stage checks, which log at Debug.
type Level uint8

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (level Level) String() string {
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel reads PAWN_LOG_LEVEL style values. "warning" is accepted for
// "warn"; matching ignores case and surrounding space.
func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	var l Level

	return l, fmt.Errorf("not a valid Level: %q", lvl)
}

// Field is one key/value pair on an entry. The zap adapter masks values
// whose key names a secret, so keys should say what the value is.
type Field struct {
	Key   string
	Value any
}

// Any attaches an arbitrary value, such as an expiry time or a batch count.
// Staff PINs, session tokens and national IDs must never be passed through
// Any unmasked.
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// String is the usual field for ids: session_id, batch_id, staff_id.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err attaches err under the "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
