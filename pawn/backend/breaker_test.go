package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/LerianStudio/lib-pawn/pawn/circuitbreaker"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLookup struct {
	*Memory
	err error
}

func (f *flakyLookup) LookupTicket(ctx context.Context, n ticket.Number) (TicketRecord, error) {
	if f.err != nil {
		return TicketRecord{}, f.err
	}

	return f.Memory.LookupTicket(ctx, n)
}

func TestGuarded_PassesThrough(t *testing.T) {
	t.Parallel()

	g := WithCircuitBreaker(newMemory(t, nil), circuitbreaker.NewManager(nil))

	rec, err := g.LookupTicket(context.Background(), "B/0125/1234")
	require.NoError(t, err)
	assert.Equal(t, ticket.Number("B/0125/1234"), rec.Number)

	auth, err := g.AuthenticateStaff(context.Background(), "st-1", "1234")
	require.NoError(t, err)

	_, err = g.RefreshSession(context.Background(), auth.RefreshToken)
	require.NoError(t, err)

	id, err := g.CommitTransaction(context.Background(), commitRequest(t, "batch-1", ticket.KindRenew))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestGuarded_RejectionsKeepBreakerClosed(t *testing.T) {
	t.Parallel()

	breakers := circuitbreaker.NewManager(nil)
	g := WithCircuitBreaker(newMemory(t, nil), breakers)

	for i := 0; i < 20; i++ {
		_, err := g.LookupTicket(context.Background(), "S/0000/0000")
		require.ErrorIs(t, err, ErrTicketNotFound)

		_, err = g.AuthenticateStaff(context.Background(), "st-1", "0000")
		require.ErrorIs(t, err, ErrRejected)
	}

	assert.Equal(t, circuitbreaker.StateClosed, breakers.State(BreakerTicketLookup))
	assert.Equal(t, circuitbreaker.StateClosed, breakers.State(BreakerStaffAuth))
}

func TestGuarded_OutageOpensBreaker(t *testing.T) {
	t.Parallel()

	breakers := circuitbreaker.NewManager(nil)
	flaky := &flakyLookup{Memory: newMemory(t, nil), err: errors.New("connection refused")}
	g := WithCircuitBreaker(flaky, breakers)

	for i := 0; i < int(circuitbreaker.DefaultConfig().ConsecutiveFailures); i++ {
		_, err := g.LookupTicket(context.Background(), "B/0125/1234")
		require.Error(t, err)
	}

	flaky.err = nil

	_, err := g.LookupTicket(context.Background(), "B/0125/1234")
	assert.ErrorIs(t, err, circuitbreaker.ErrUnavailable)
	assert.Equal(t, circuitbreaker.StateOpen, breakers.State(BreakerTicketLookup))
	assert.Equal(t, circuitbreaker.StateClosed, breakers.State(BreakerCommit))
}

type mistypedManager struct {
	circuitbreaker.Manager
}

func (mistypedManager) Execute(string, func() (any, error)) (any, error) {
	return "not a record", nil
}

func TestExecute_RejectsMistypedResult(t *testing.T) {
	t.Parallel()

	rec, err := execute(mistypedManager{}, BreakerTicketLookup, func() (TicketRecord, error) {
		return TicketRecord{Number: "B/0125/1234"}, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), BreakerTicketLookup)
	assert.Contains(t, err.Error(), "string")
	assert.Equal(t, TicketRecord{}, rec)
}
