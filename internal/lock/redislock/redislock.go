// Package redislock provides an application.RoomLocker shared by every
// process that talks to the same Redis, so several booking servers can run
// against one database without admitting overlapping reservations.
//
// A lock is a key set with SET NX PX holding a random token. It expires
// after the configured TTL if its holder dies, and it is released with a
// compare-and-delete script so a holder never deletes a lock it lost.
package redislock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
)

const (
	defaultKeyPrefix     = "booking:room-lock:"
	defaultTTL           = 30 * time.Second
	defaultRetryInterval = 25 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires per-room locks in Redis.
type Locker struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	timeout       time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// Option customises a Locker.
type Option func(*Locker)

// WithKeyPrefix sets the prefix of lock keys.
func WithKeyPrefix(prefix string) Option {
	return func(l *Locker) {
		if prefix != "" {
			l.keyPrefix = prefix
		}
	}
}

// WithTTL sets how long a lock survives a holder that never releases it.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval sets the polling interval while a lock is held elsewhere.
func WithRetryInterval(interval time.Duration) Option {
	return func(l *Locker) {
		if interval > 0 {
			l.retryInterval = interval
		}
	}
}

// WithLogger sets the logger for release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

var _ application.RoomLocker = (*Locker)(nil)

// New returns a Locker that waits at most timeout for a room.
func New(client *redis.Client, timeout time.Duration, opts ...Option) *Locker {
	if client == nil {
		panic("redislock: client cannot be nil")
	}
	if timeout <= 0 {
		timeout = application.DefaultLockTimeout
	}
	l := &Locker{
		client:        client,
		keyPrefix:     defaultKeyPrefix,
		ttl:           defaultTTL,
		timeout:       timeout,
		retryInterval: defaultRetryInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) key(roomID string) string {
	return l.keyPrefix + roomID
}

// Lock blocks until the room's lock is acquired, the wait exceeds the
// timeout (application.ErrBusy), or ctx ends.
func (l *Locker) Lock(ctx context.Context, roomID string) (func(), error) {
	key := l.key(roomID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err == nil && acquired {
			return l.releaser(key, token), nil
		}
		if err != nil && waitCtx.Err() == nil {
			return nil, errs.Mark(errs.Wrapf(err, "acquire lock for room %s", roomID), application.ErrStorageFailure)
		}

		select {
		case <-waitCtx.Done():
			if errs.Is(ctx.Err(), context.Canceled) {
				return nil, errs.Wrapf(ctx.Err(), "acquire lock for room %s", roomID)
			}
			return nil, errs.Mark(errs.Newf("room %s still locked after %s", roomID, l.timeout), application.ErrBusy)
		case <-ticker.C:
		}
	}
}

func (l *Locker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, token) })
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errs.Is(err, redis.Nil) {
		l.logger.Warn("failed to release room lock", "key", key, "error", err)
	}
}
