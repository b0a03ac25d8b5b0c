package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// DefaultLockPrefix namespaces refresh locks in Redis.
const DefaultLockPrefix = "pawn:lock:refresh:"

// ErrLockNotHeld is returned by Unlock when the lock expired before release.
var ErrLockNotHeld = errors.New("session: refresh lock was not held or already expired")

// Unlocker releases an acquired lock.
type Unlocker interface {
	Unlock(ctx context.Context) error
}

// Locker serializes refreshes of one session across consoles sharing a
// store. Refresh tokens are single use, so two concurrent refreshes of the
// same session would leave one console with a revoked token.
type Locker interface {
	// TryLock makes a single attempt. It returns false without an error when
	// another holder has the lock.
	TryLock(ctx context.Context, sessionID string) (Unlocker, bool, error)
}

// RedisLocker implements Locker with a redsync mutex per session.
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	expiry time.Duration
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker returns a locker on client. The lock expires after expiry
// even if never released; it should exceed the refresh timeout.
func NewRedisLocker(client redis.UniversalClient, prefix string, expiry time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = DefaultLockPrefix
	}

	if expiry <= 0 {
		expiry = 2 * DefaultRefreshTimeout
	}

	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: prefix,
		expiry: expiry,
	}
}

// TryLock implements Locker.
func (l *RedisLocker) TryLock(ctx context.Context, sessionID string) (Unlocker, bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, false, errors.New("session: lock key cannot be empty")
	}

	mutex := l.rs.NewMutex(l.prefix+sessionID, redsync.WithExpiry(l.expiry), redsync.WithTries(1))

	if err := mutex.LockContext(ctx); err != nil {
		if isLockContention(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("acquire refresh lock: %w", err)
	}

	return &redisUnlocker{mutex: mutex}, true, nil
}

// redsync reports contention either as ErrFailed or as an ErrTaken value
// depending on how many nodes answered.
func isLockContention(err error) bool {
	return errors.Is(err, redsync.ErrFailed) ||
		strings.Contains(err.Error(), "lock already taken") ||
		strings.Contains(err.Error(), "failed to acquire lock")
}

type redisUnlocker struct {
	mutex *redsync.Mutex
}

func (u *redisUnlocker) Unlock(ctx context.Context) error {
	ok, err := u.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("release refresh lock: %w", err)
	}

	if !ok {
		return ErrLockNotHeld
	}

	return nil
}
