package runtime

import (
	"context"

	"github.com/LerianStudio/lib-pawn/pawn/log"
)

// SafeGo runs fn in a new goroutine with panic recovery.
func SafeGo(logger log.Logger, name string, policy PanicPolicy, fn func()) {
	SafeGoWithContextAndComponent(context.Background(), logger, "", name, policy, func(context.Context) { fn() })
}

// SafeGoWithContextAndComponent runs fn(ctx) in a new goroutine. A panic is
// reported with the given component and name before policy is applied.
func SafeGoWithContextAndComponent(
	ctx context.Context,
	logger log.Logger,
	component, name string,
	policy PanicPolicy,
	fn func(context.Context),
) {
	if fn == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer RecoverWithPolicyAndContext(ctx, logger, component, name, policy)

		fn(ctx)
	}()
}
