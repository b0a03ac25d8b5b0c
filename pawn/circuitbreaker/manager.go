package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/LerianStudio/lib-pawn/pawn/runtime"
	"github.com/sony/gobreaker"
)

// ErrUnavailable wraps every rejection by an open or saturated breaker.
var ErrUnavailable = errors.New("service unavailable")

type manager struct {
	breakers  map[string]*gobreaker.CircuitBreaker
	configs   map[string]Config
	listeners []StateChangeListener
	mu        sync.RWMutex
	logger    log.Logger
}

// NewManager creates a new circuit breaker manager. A nil logger is allowed.
//
//nolint:ireturn
func NewManager(logger log.Logger) Manager {
	return &manager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		configs:  make(map[string]Config),
		logger:   log.OrNop(logger),
	}
}

func (m *manager) settings(name string, config Config) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "pawn-" + name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.ConsecutiveFailures {
				return true
			}

			if counts.Requests < config.MinRequests || counts.Requests == 0 {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			m.handleStateChange(name, from, to)
		},
		IsSuccessful: config.IsSuccessful,
	}
}

//nolint:ireturn
func (m *manager) GetOrCreate(name string, config Config) CircuitBreaker {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if exists {
		return &circuitBreaker{breaker: breaker}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, exists = m.breakers[name]; exists {
		return &circuitBreaker{breaker: breaker}
	}

	breaker = gobreaker.NewCircuitBreaker(m.settings(name, config))
	m.breakers[name] = breaker
	m.configs[name] = config

	m.logger.Log(context.Background(), log.LevelDebug, "circuit breaker created", log.String("breaker", name))

	return &circuitBreaker{breaker: breaker}
}

func (m *manager) Execute(name string, fn func() (any, error)) (any, error) {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("circuit breaker %q not registered (call GetOrCreate first)", name)
	}

	result, err := breaker.Execute(fn)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		m.logger.Log(context.Background(), log.LevelWarn, "circuit breaker open, request rejected", log.String("breaker", name))

		return nil, fmt.Errorf("%w: %s (circuit breaker open): %w", ErrUnavailable, name, err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		m.logger.Log(context.Background(), log.LevelWarn, "circuit breaker half-open, too many requests", log.String("breaker", name))

		return nil, fmt.Errorf("%w: %s is recovering: %w", ErrUnavailable, name, err)
	}

	return result, err
}

func (m *manager) State(name string) State {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if !exists {
		return StateUnknown
	}

	return convertState(breaker.State())
}

func (m *manager) Counts(name string) Counts {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()

	if !exists {
		return Counts{}
	}

	return convertCounts(breaker.Counts())
}

func (m *manager) IsHealthy(name string) bool {
	return m.State(name) == StateClosed
}

func (m *manager) Reset(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, exists := m.configs[name]
	if !exists {
		return
	}

	m.breakers[name] = gobreaker.NewCircuitBreaker(m.settings(name, config))

	m.logger.Log(context.Background(), log.LevelInfo, "circuit breaker reset", log.String("breaker", name))
}

func (m *manager) RegisterStateChangeListener(listener StateChangeListener) {
	if listener == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, listener)
}

func (m *manager) handleStateChange(name string, from gobreaker.State, to gobreaker.State) {
	level := log.LevelInfo
	if to == gobreaker.StateOpen {
		level = log.LevelError
	}

	m.logger.Log(context.Background(), level, "circuit breaker state changed",
		log.String("breaker", name),
		log.String("from", from.String()),
		log.String("to", to.String()),
	)

	fromState, toState := convertState(from), convertState(to)

	m.mu.RLock()
	listeners := make([]StateChangeListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, listener := range listeners {
		l := listener

		runtime.SafeGo(m.logger, "circuitbreaker.listener", runtime.KeepRunning, func() {
			l.OnStateChange(name, fromState, toState)
		})
	}
}
