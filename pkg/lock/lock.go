package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort distributed mutex with a lease.
type Locker interface {
	// TryAcquire returns a release func when the lock was obtained, nil otherwise.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), err error)
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) Locker {
	return &redisLocker{client: client}
}

// TryAcquire implements Locker.
func (l *redisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return func(ctx context.Context) {
		releaseScript.Run(ctx, l.client, []string{key}, token)
	}, nil
}
