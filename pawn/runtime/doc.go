// Package runtime launches background goroutines with panic recovery.
//
// A panic inside a goroutine started through SafeGo is logged with its stack,
// recorded as an event on the active span, and then either swallowed or
// re-raised depending on the PanicPolicy.
package runtime
