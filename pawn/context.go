package pawn

import (
	"context"

	"github.com/LerianStudio/lib-pawn/pawn/log"
)

type customContextKey string

// CustomContextKey is the context key used to store CustomContextKeyValue.
var CustomContextKey = customContextKey("pawn_context")

// CustomContextKeyValue holds the request-scoped facilities attached to context.
type CustomContextKeyValue struct {
	Logger    log.Logger
	SessionID string
	BatchID   string
}

func valuesFromContext(ctx context.Context) CustomContextKeyValue {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok && values != nil {
		return *values
	}

	return CustomContextKeyValue{}
}

// NewLoggerFromContext extracts the Logger stored in ctx, enriched with the
// session and batch ids when present. Returns a NopLogger when none is set.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	values := valuesFromContext(ctx)
	if values.Logger == nil {
		return &log.NopLogger{}
	}

	logger := values.Logger

	if values.SessionID != "" {
		logger = logger.With(log.String("session_id", values.SessionID))
	}

	if values.BatchID != "" {
		logger = logger.With(log.String("batch_id", values.BatchID))
	}

	return logger
}

// ContextWithLogger returns a copy of ctx carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	values := valuesFromContext(ctx)
	values.Logger = logger

	return context.WithValue(ctx, CustomContextKey, &values)
}

// ContextWithSessionID returns a copy of ctx carrying the staff session id.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	values := valuesFromContext(ctx)
	values.SessionID = sessionID

	return context.WithValue(ctx, CustomContextKey, &values)
}

// ContextWithBatchID returns a copy of ctx carrying the active batch id.
func ContextWithBatchID(ctx context.Context, batchID string) context.Context {
	values := valuesFromContext(ctx)
	values.BatchID = batchID

	return context.WithValue(ctx, CustomContextKey, &values)
}
