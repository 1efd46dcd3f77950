package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
)

func TestNewAppliesOptions(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	l := New(client, 0, WithKeyPrefix("test:"), WithTTL(time.Minute), WithRetryInterval(time.Millisecond))
	assert.Equal(t, application.DefaultLockTimeout, l.timeout)
	assert.Equal(t, time.Minute, l.ttl)
	assert.Equal(t, time.Millisecond, l.retryInterval)
	assert.Equal(t, "test:room-1", l.key("room-1"))

	defaults := New(client, time.Second, WithKeyPrefix(""), WithTTL(-1))
	assert.Equal(t, defaultKeyPrefix, defaults.keyPrefix)
	assert.Equal(t, defaultTTL, defaults.ttl)
}

func TestLockReportsUnreachableRedisAsStorageFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	_, err := New(client, 2*time.Second).Lock(context.Background(), "room-1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, application.ErrStorageFailure), "got %v", err)
	assert.False(t, errs.Is(err, application.ErrBusy))
}
