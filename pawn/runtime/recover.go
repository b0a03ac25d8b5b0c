package runtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/LerianStudio/lib-pawn/pawn/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicPolicy decides what happens after a recovered panic was reported.
type PanicPolicy int

const (
	// KeepRunning swallows the panic once it has been logged.
	KeepRunning PanicPolicy = iota
	// CrashProcess re-panics after logging.
	CrashProcess
)

// String returns the policy name.
func (p PanicPolicy) String() string {
	switch p {
	case KeepRunning:
		return "KeepRunning"
	case CrashProcess:
		return "CrashProcess"
	default:
		return "Unknown"
	}
}

// RecoverAndLogWithContext recovers from a panic and reports it. Must be
// called directly in a defer statement.
//
//	defer runtime.RecoverAndLogWithContext(ctx, logger, "session", "poller")
func RecoverAndLogWithContext(ctx context.Context, logger log.Logger, component, name string) {
	if r := recover(); r != nil {
		HandlePanicValue(ctx, logger, r, component, name)
	}
}

// RecoverWithPolicyAndContext is RecoverAndLogWithContext with a configurable
// policy.
func RecoverWithPolicyAndContext(ctx context.Context, logger log.Logger, component, name string, policy PanicPolicy) {
	if r := recover(); r != nil {
		HandlePanicValue(ctx, logger, r, component, name)

		if policy == CrashProcess {
			panic(r)
		}
	}
}

// HandlePanicValue reports a panic value that was already recovered by the
// caller. It does not call recover itself.
func HandlePanicValue(ctx context.Context, logger log.Logger, panicValue any, component, name string) {
	if panicValue == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	stack := debug.Stack()

	log.OrNop(logger).Log(ctx, log.LevelError, "panic recovered",
		log.String("component", component),
		log.String("goroutine", name),
		log.Any("panic", panicValue),
		log.String("stack_trace", string(stack)),
	)

	RecordPanicToSpan(ctx, panicValue, stack, component, name)
}

// RecordPanicToSpan adds a panic event to the span in ctx and marks it failed.
// It is a no-op when ctx carries no recording span.
func RecordPanicToSpan(ctx context.Context, panicValue any, stack []byte, component, name string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.AddEvent("panic.recovered", trace.WithAttributes(
		attribute.String("panic.component", component),
		attribute.String("panic.goroutine", name),
		attribute.String("panic.value", fmt.Sprint(panicValue)),
		attribute.String("panic.stack", string(stack)),
	))
	span.SetStatus(codes.Error, "panic recovered in "+name)
}
