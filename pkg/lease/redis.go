package lease

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

type redisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// MinTTL is the shortest lease NewRedis accepts. Shorter values are raised to it.
const MinTTL = time.Second

// NewRedis returns a Locker backed by SET NX PX keys. Held leases are renewed
// every ttl/3 until released, so a crashed holder frees the lease after ttl.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) Locker {
	ttl = max(ttl, MinTTL)
	return &redisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("system", "lease"),
	}
}

func (r *redisLocker) TryAcquire(ctx context.Context, name string) (func(), error) {
	key := r.prefix + ":lease:" + name
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", name, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() { r.renew(key, token, stop) })

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()

			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
				r.logger.Error("lease release failed", "name", name, "error", err)
			}
		})
	}, nil
}

func (r *redisLocker) renew(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
			n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
			cancel()

			if err != nil {
				r.logger.Warn("lease renewal failed", "key", key, "error", err)
				continue
			}
			if n == 0 {
				r.logger.Error("lease lost before release", "key", key)
				return
			}
		}
	}
}
