package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected by backend")

func tripConfig() Config {
	return Config{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 3,
		FailureRatio:        0.9,
		MinRequests:         100,
	}
}

func TestManager_InitialState(t *testing.T) {
	t.Parallel()

	m := NewManager(log.NewNop())
	m.GetOrCreate("ticket-lookup", DefaultConfig())

	assert.Equal(t, StateClosed, m.State("ticket-lookup"))
	assert.True(t, m.IsHealthy("ticket-lookup"))
	assert.Equal(t, StateUnknown, m.State("missing"))
	assert.Equal(t, Counts{}, m.Counts("missing"))
}

func TestManager_ExecuteUnregistered(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)

	_, err := m.Execute("commit", func() (any, error) { return nil, nil })
	assert.ErrorContains(t, err, "not registered")
}

func TestManager_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.GetOrCreate("commit", tripConfig())

	for i := 0; i < 3; i++ {
		_, err := m.Execute("commit", func() (any, error) { return nil, errors.New("timeout") })
		require.Error(t, err)
	}

	assert.Equal(t, StateOpen, m.State("commit"))
	assert.False(t, m.IsHealthy("commit"))

	called := false
	_, err := m.Execute("commit", func() (any, error) {
		called = true

		return nil, nil
	})

	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.False(t, called)
}

func TestManager_DomainRejectionsDoNotTrip(t *testing.T) {
	t.Parallel()

	cfg := tripConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, errRejected) }

	m := NewManager(nil)
	m.GetOrCreate("staff-auth", cfg)

	for i := 0; i < 10; i++ {
		_, err := m.Execute("staff-auth", func() (any, error) { return nil, errRejected })
		require.ErrorIs(t, err, errRejected)
	}

	assert.Equal(t, StateClosed, m.State("staff-auth"))
	assert.Equal(t, uint32(10), m.Counts("staff-auth").TotalSuccesses)
}

func TestManager_Counts(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.GetOrCreate("ticket-lookup", DefaultConfig())

	for i := 0; i < 4; i++ {
		_, _ = m.Execute("ticket-lookup", func() (any, error) { return "ok", nil })
	}

	_, _ = m.Execute("ticket-lookup", func() (any, error) { return nil, errors.New("boom") })

	counts := m.Counts("ticket-lookup")
	assert.Equal(t, uint32(5), counts.Requests)
	assert.Equal(t, uint32(4), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
}

func TestManager_Reset(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.GetOrCreate("commit", tripConfig())

	for i := 0; i < 3; i++ {
		_, _ = m.Execute("commit", func() (any, error) { return nil, errors.New("down") })
	}

	require.Equal(t, StateOpen, m.State("commit"))

	m.Reset("commit")
	m.Reset("never-created")

	assert.Equal(t, StateClosed, m.State("commit"))

	result, err := m.Execute("commit", func() (any, error) { return "tx-1", nil })
	require.NoError(t, err)
	assert.Equal(t, "tx-1", result)
}

func TestManager_NotifiesListeners(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		transitions []string
	)

	m := NewManager(nil)
	m.RegisterStateChangeListener(nil)
	m.RegisterStateChangeListener(StateChangeFunc(func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()

		transitions = append(transitions, name+":"+string(from)+"->"+string(to))
	}))
	m.GetOrCreate("session-refresh", tripConfig())

	for i := 0; i < 3; i++ {
		_, _ = m.Execute("session-refresh", func() (any, error) { return nil, errors.New("down") })
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(transitions) == 1 && transitions[0] == "session-refresh:closed->open"
	}, time.Second, 5*time.Millisecond)
}

func TestCircuitBreaker_Handle(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	cb := m.GetOrCreate("x", DefaultConfig())
	same := m.GetOrCreate("x", tripConfig())

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	require.NoError(t, err)

	assert.Equal(t, StateClosed, same.State())
	assert.Equal(t, uint32(1), same.Counts().Requests)
}
