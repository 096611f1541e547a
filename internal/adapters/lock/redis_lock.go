package lock

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"waste-route-service/internal/ports"
)

// Deletes the key only while it still holds this run's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a GenerationLock shared by every replica using the same Redis.
// A crashed holder's lock expires after TTL.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, ttl: ttl, prefix: "waste-routes:lock:"}
}

// NewRedisLockFromURL parses a redis:// URL and verifies the connection.
func NewRedisLockFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisLock, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis lock: parse url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "redis lock: ping")
	}

	return NewRedisLock(client, ttl), nil
}

func (l *RedisLock) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()
	full := l.prefix + key

	ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis lock: set %s", full)
	}
	if !ok {
		return nil, ports.ErrLockHeld
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{full}, token).Err(); err != nil {
			return errors.Wrapf(err, "redis lock: release %s", full)
		}
		return nil
	}, nil
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}
