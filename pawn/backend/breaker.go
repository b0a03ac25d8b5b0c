package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/LerianStudio/lib-pawn/pawn/circuitbreaker"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// Breaker names, one per backend operation.
const (
	BreakerTicketLookup   = "ticket-lookup"
	BreakerStaffAuth      = "staff-auth"
	BreakerSessionRefresh = "session-refresh"
	BreakerCommit         = "commit"
)

// Guarded decorates a Backend with one circuit breaker per operation.
type Guarded struct {
	next     Backend
	breakers circuitbreaker.Manager
}

var _ Backend = (*Guarded)(nil)

// WithCircuitBreaker wraps next. Domain rejections and caller cancellations
// never count as breaker failures.
func WithCircuitBreaker(next Backend, breakers circuitbreaker.Manager) *Guarded {
	isSuccessful := func(err error) bool {
		return err == nil || IsDomainRejection(err) || errors.Is(err, context.Canceled)
	}

	for name, cfg := range map[string]circuitbreaker.Config{
		BreakerTicketLookup:   circuitbreaker.DefaultConfig(),
		BreakerStaffAuth:      circuitbreaker.DefaultConfig(),
		BreakerSessionRefresh: circuitbreaker.DefaultConfig(),
		BreakerCommit:         circuitbreaker.CommitConfig(),
	} {
		cfg.IsSuccessful = isSuccessful
		breakers.GetOrCreate(name, cfg)
	}

	return &Guarded{next: next, breakers: breakers}
}

func execute[T any](m circuitbreaker.Manager, name string, fn func() (T, error)) (T, error) {
	var zero T

	out, err := m.Execute(name, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}

	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker %s: unexpected result type %T", name, out)
	}

	return v, nil
}

// LookupTicket implements TicketLookup.
func (g *Guarded) LookupTicket(ctx context.Context, number ticket.Number) (TicketRecord, error) {
	return execute(g.breakers, BreakerTicketLookup, func() (TicketRecord, error) {
		return g.next.LookupTicket(ctx, number)
	})
}

// AuthenticateStaff implements StaffAuthenticator.
func (g *Guarded) AuthenticateStaff(ctx context.Context, staffID, pin string) (Authentication, error) {
	return execute(g.breakers, BreakerStaffAuth, func() (Authentication, error) {
		return g.next.AuthenticateStaff(ctx, staffID, pin)
	})
}

// RefreshSession implements SessionRefresher.
func (g *Guarded) RefreshSession(ctx context.Context, refreshToken string) (RefreshResult, error) {
	return execute(g.breakers, BreakerSessionRefresh, func() (RefreshResult, error) {
		return g.next.RefreshSession(ctx, refreshToken)
	})
}

// CommitTransaction implements Committer.
func (g *Guarded) CommitTransaction(ctx context.Context, req CommitRequest) (TransactionID, error) {
	return execute(g.breakers, BreakerCommit, func() (TransactionID, error) {
		return g.next.CommitTransaction(ctx, req)
	})
}
