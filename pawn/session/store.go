package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrNotFound is returned by Store.Load for an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Store persists session records, never batch state. Records expire on their
// own after ttl.
type Store interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryItem struct {
	session  Session
	deadline time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	clock clockwork.Clock
	items map[string]memoryItem
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. A nil clock uses wall time.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &MemoryStore{clock: clock, items: make(map[string]memoryItem)}
}

// Save stores s until ttl elapses. A non-positive ttl deletes the record.
func (m *MemoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.items, s.ID)

		return nil
	}

	m.items[s.ID] = memoryItem{session: s, deadline: m.clock.Now().Add(ttl)}

	return nil
}

// Load returns the stored session.
func (m *MemoryStore) Load(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	if !m.clock.Now().Before(item.deadline) {
		delete(m.items, id)

		return Session{}, ErrNotFound
	}

	return item.session, nil
}

// Delete removes the record. Deleting an unknown id is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)

	return nil
}
