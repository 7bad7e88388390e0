package cache

import (
	"context"
	"time"

	"fridgechef/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Shared is the cross-process cache tier backed by Redis. All methods are
// best-effort: errors are returned so the tier can degrade, never to be
// surfaced to callers.
type Shared struct {
	client *redis.Client
}

// NewShared connects to Redis. A failed ping returns nil so the tier runs
// local-only; shared caching is a performance concern, not a correctness one.
func NewShared(addr, password string, db int) *Shared {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		common.LogWarn("shared cache unreachable, running local-only",
			zap.String("addr", addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}

	common.LogInfo("shared cache connected", zap.String("addr", addr))
	return &Shared{client: client}
}

// Get fetches a value. A missing key returns ErrCacheMiss.
func (s *Shared) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, common.ErrCacheMiss
		}
		return nil, common.ErrCacheUnavailable.WithCause(err)
	}
	return data, nil
}

// Set stores a value with a TTL.
func (s *Shared) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return common.ErrCacheUnavailable.WithCause(err)
	}
	return nil
}

// Ping checks connectivity, for readiness probes.
func (s *Shared) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection.
func (s *Shared) Close() error {
	return s.client.Close()
}
