package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// Manager manages one circuit breaker per backend operation.
type Manager interface {
	// GetOrCreate returns the existing breaker for name or creates one.
	GetOrCreate(name string, config Config) CircuitBreaker

	// Execute runs fn through the breaker registered for name.
	Execute(name string, fn func() (any, error)) (any, error)

	// State returns the current state, StateUnknown for an unknown name.
	State(name string) State

	// Counts returns the current counts for a breaker.
	Counts(name string) Counts

	// IsHealthy returns true when the breaker is closed.
	IsHealthy(name string) bool

	// Reset recreates the breaker in the closed state.
	Reset(name string)

	// RegisterStateChangeListener registers a listener for state changes.
	RegisterStateChangeListener(listener StateChangeListener)
}

// CircuitBreaker is a single breaker.
type CircuitBreaker interface {
	Execute(fn func() (any, error)) (any, error)
	State() State
	Counts() Counts
}

// Config holds circuit breaker configuration.
type Config struct {
	MaxRequests         uint32        // requests allowed while half-open
	Interval            time.Duration // closed-state window after which counts reset
	Timeout             time.Duration // open-state duration before half-open
	ConsecutiveFailures uint32        // consecutive failures that open the breaker
	FailureRatio        float64       // failure ratio that opens the breaker
	MinRequests         uint32        // requests required before the ratio applies

	// IsSuccessful classifies an error returned by the guarded call. A nil
	// func counts only nil errors as success.
	IsSuccessful func(err error) bool
}

// State is a breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
	StateUnknown  State = "unknown"
)

// Counts are breaker statistics.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// StateChangeListener is notified when a breaker changes state.
type StateChangeListener interface {
	OnStateChange(name string, from State, to State)
}

// StateChangeFunc adapts a function to StateChangeListener.
type StateChangeFunc func(name string, from State, to State)

// OnStateChange calls f.
func (f StateChangeFunc) OnStateChange(name string, from State, to State) { f(name, from, to) }

type circuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

func (cb *circuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return cb.breaker.Execute(fn)
}

func (cb *circuitBreaker) State() State {
	return convertState(cb.breaker.State())
}

func (cb *circuitBreaker) Counts() Counts {
	return convertCounts(cb.breaker.Counts())
}

func convertState(state gobreaker.State) State {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateUnknown
	}
}

func convertCounts(c gobreaker.Counts) Counts {
	return Counts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}
