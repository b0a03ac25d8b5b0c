package zap

import (
	"context"
	"errors"
	"testing"

	logpkg "github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)

	return Wrap(zap.New(core)), observed
}

func TestLoggerNilReceiverFallsBackToNop(t *testing.T) {
	var nilLogger *Logger

	assert.NotPanics(t, func() {
		nilLogger.Log(context.Background(), logpkg.LevelInfo, "message")
	})
}

func TestLogDispatchesLevels(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.DebugLevel)
	ctx := context.Background()

	logger.Log(ctx, logpkg.LevelDebug, "debug message")
	logger.Log(ctx, logpkg.LevelInfo, "info message", logpkg.String("batch_id", "b-1"))
	logger.Log(ctx, logpkg.LevelWarn, "warn message")
	logger.Log(ctx, logpkg.LevelError, "error message", logpkg.Err(errors.New("boom")))

	entries := observed.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "b-1", entries[1].ContextMap()["batch_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestWithAddsFields(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	child := logger.With(logpkg.String("component", "session"))
	child.Log(context.Background(), logpkg.LevelInfo, "tick")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session", entries[0].ContextMap()["component"])
}

func TestEnabled(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.WarnLevel)

	assert.False(t, logger.Enabled(logpkg.LevelInfo))
	assert.True(t, logger.Enabled(logpkg.LevelWarn))
	assert.True(t, logger.Enabled(logpkg.LevelError))
}

func TestSyncRespectsCanceledContext(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, logger.Sync(ctx), context.Canceled)
}

func TestNewValidatesEnvironment(t *testing.T) {
	_, err := New(Config{Environment: "moon"})
	require.Error(t, err)

	logger, err := New(Config{Environment: EnvironmentLocal})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(logpkg.LevelDebug))

	logger, err = New(Config{Environment: EnvironmentProduction, Level: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Enabled(logpkg.LevelInfo))

	logger, err = New(Config{Environment: EnvironmentLocal, Level: " Warning "})
	require.NoError(t, err)
	assert.True(t, logger.Enabled(logpkg.LevelWarn))
	assert.False(t, logger.Enabled(logpkg.LevelInfo))

	_, err = New(Config{Environment: EnvironmentProduction, Level: "loud"})
	assert.Error(t, err)
}

func TestLogSanitizesSensitiveFields(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Log(context.Background(), logpkg.LevelInfo, "sign-in\nforged line",
		logpkg.String("staff_id", "st-1\r\n"),
		logpkg.String("pin", "1234"),
		logpkg.String("refresh_token", "abc"),
		logpkg.String("national_id", "S1234567A"),
		logpkg.Any("redeemer_national_id", 42),
		logpkg.Int("tickets", 3),
	)

	entries := observed.All()
	require.Len(t, entries, 1)

	assert.Equal(t, `sign-in\nforged line`, entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, `st-1\r\n`, fields["staff_id"])
	assert.Equal(t, "********", fields["pin"])
	assert.Equal(t, "********", fields["refresh_token"])
	assert.Equal(t, "S****567A", fields["national_id"])
	assert.Equal(t, "********", fields["redeemer_national_id"])
	assert.Equal(t, int64(3), fields["tickets"])
}
