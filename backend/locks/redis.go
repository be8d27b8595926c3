package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance pointing at the same
// Redis. The TTL bounds how long a crashed holder can block others.
type RedisLocker struct {
	client        *redis.Client
	key           string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *zap.Logger
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:        client,
		key:           key,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring lock %q: %w", l.key, err)
		}
		if ok {
			return func() { l.unlock(token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlock(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := l.Release(ctx, token); err != nil {
		l.logger.Warn("failed to release lock", zap.String("key", l.key), zap.Error(err))
	}
}

// Release drops the lock if token still owns it.
func (l *RedisLocker) Release(ctx context.Context, token string) error {
	n, err := release.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		return fmt.Errorf("releasing lock %q: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
