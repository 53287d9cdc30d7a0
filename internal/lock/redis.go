package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when this process still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// RedisLocker implements Locker using Redis SET NX with expiry.
// Safe across multiple server instances sharing one Redis.
type RedisLocker struct {
	client *redis.Client
	token  string
}

// NewRedisLocker creates a new RedisLocker.
// The token identifies this process so a lock is never released by a
// process that does not hold it.
func NewRedisLocker(client *redis.Client, token string) *RedisLocker {
	return &RedisLocker{
		client: client,
		token:  token,
	}
}

// Acquire attempts to acquire a lock.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, l.token, ttl).Result()
}

// Release releases a lock held by this process.
func (l *RedisLocker) Release(ctx context.Context, key string) (bool, error) {
	res, err := l.client.Eval(ctx, releaseScript, []string{key}, l.token).Result()
	if err != nil {
		return false, err
	}
	n, ok := res.(int64)
	return ok && n == 1, nil
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
