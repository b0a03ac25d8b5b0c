package session

import (
	"context"
	"testing"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() Session {
	return Session{
		ID:           "sess-1",
		Credential:   authz.Credential{StaffID: "st-1", Name: "Tina", Role: authz.RoleTeller},
		Token:        "token-1",
		RefreshToken: "refresh-1",
		IssuedAt:     t0,
		ExpiresAt:    t0.Add(30 * time.Minute),
		Refreshable:  true,
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(t0)
	store := NewMemoryStore(clock)

	_, err := store.Load(ctx, "sess-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, sampleSession(), time.Minute))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)

	clock.Advance(time.Minute)

	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, sampleSession(), time.Hour))
	require.NoError(t, store.Save(ctx, sampleSession(), 0))

	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ""), mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, sampleSession(), 30*time.Minute))

	assert.True(t, mr.Exists(DefaultKeyPrefix+"sess-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL(DefaultKeyPrefix+"sess-1"))

	got, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "st-1", got.Credential.StaffID)
	assert.True(t, got.ExpiresAt.Equal(t0.Add(30*time.Minute)))
	assert.True(t, got.Refreshable)

	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_KeyExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, sampleSession(), time.Minute))

	mr.FastForward(time.Minute)

	_, err := store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_NonPositiveTTLDeletes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, sampleSession(), time.Hour))
	require.NoError(t, store.Save(ctx, sampleSession(), -time.Second))

	assert.False(t, mr.Exists(DefaultKeyPrefix+"sess-1"))
}

func TestRedisStore_CustomPrefixAndOutage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "desk-7:")
	require.NoError(t, store.Save(ctx, sampleSession(), time.Hour))
	assert.True(t, mr.Exists("desk-7:sess-1"))

	mr.SetError("LOADING")

	_, err := store.Load(ctx, "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestManager_WithRedisStore(t *testing.T) {
	t.Parallel()

	store, mr := newRedisStore(t)
	stub := newStub(30 * time.Minute)

	m, err := NewManager(Config{Authenticator: stub, Refresher: stub, Store: store, Clock: clockwork.NewFakeClockAt(t0)})
	require.NoError(t, err)

	sess, err := m.Authenticate(context.Background(), "st-1", "1234")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, mr.TTL(DefaultKeyPrefix+sess.ID))

	m.Logout(context.Background())
	assert.False(t, mr.Exists(DefaultKeyPrefix+sess.ID))
}
