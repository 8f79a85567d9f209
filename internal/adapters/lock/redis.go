package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventservices/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultRetryWait = 25 * time.Millisecond
	maxRetryWait     = 250 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a ProviderLocker shared by every API instance pointing at the same Redis.
// The TTL bounds how long a crashed holder can block a provider. It is not renewed,
// so it is also the upper bound on a critical section: a holder that runs longer
// loses exclusivity, and its release is logged as a no-op.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.ProviderLocker = (*RedisLocker)(nil)

// NewRedisLocker returns a RedisLocker using keys "<prefix><providerID>".
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if prefix == "" {
		prefix = "booking:provider-lock:"
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Lock polls SETNX with a growing wait until it wins or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, providerID string) (func(), error) {
	key := l.prefix + providerID
	token := uuid.NewString()
	wait := defaultRetryWait
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: acquire provider lock: %w", domain.ErrStorageUnavailable, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxRetryWait)
	}

	return func() {
		// Release even if the caller's context is already cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(rctx, l.client, []string{key}, token).Int()
		switch {
		case err != nil:
			// The TTL frees the key.
			l.logger.WarnContext(rctx, "provider lock release failed", "provider_id", providerID, "error", err)
		case deleted == 0:
			l.logger.WarnContext(rctx, "provider lock expired before release", "provider_id", providerID, "ttl", l.ttl)
		}
	}, nil
}
