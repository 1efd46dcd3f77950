package bootstrap

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/lock/redislock"
)

// NewRoomLocker builds the room token backend. The returned closer releases
// the backend's connections and is never nil.
func NewRoomLocker(ctx context.Context, lock config.Lock, rc config.Redis, logger *slog.Logger) (application.RoomLocker, io.Closer, error) {
	switch lock.Backend {
	case config.LockBackendLocal:
		return application.NewLocalRoomLocker(lock.Timeout), nopCloser{}, nil

	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errs.Wrapf(err, "ping redis at %s", rc.Addr)
		}
		logger.InfoContext(ctx, "redis room locks ready", "addr", rc.Addr)
		locker := redislock.New(client, lock.Timeout,
			redislock.WithTTL(lock.TTL),
			redislock.WithLogger(logger),
		)
		return locker, client, nil
	}
	return nil, nil, errs.Newf("unknown lock backend %q", lock.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
