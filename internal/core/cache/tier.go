package cache

import (
	"context"
	"time"

	"fridgechef/internal/infrastructure/config"
	"fridgechef/internal/infrastructure/metrics"
	"fridgechef/internal/pkg/common"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Tier is the two-level recipe cache: in-process first, shared store second,
// write-through to both. The shared store being absent or failing is silent
// to callers.
type Tier struct {
	local     *Local
	shared    *Shared
	namespace string
	ttl       time.Duration
}

// NewTier builds the cache tier from config. Returns nil when caching is
// disabled entirely.
func NewTier(cfg *config.CacheConfig) *Tier {
	if !cfg.Enabled {
		common.LogInfo("cache disabled")
		return nil
	}

	t := &Tier{
		local:     NewLocal(cfg.MaxSize, cfg.CleanupInterval),
		shared:    NewShared(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
	}

	common.LogInfo("cache tier initialized",
		zap.Int("local_max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Bool("shared", t.shared != nil),
	)
	return t
}

func (t *Tier) fullKey(key string) string {
	return t.namespace + ":" + key
}

// Get looks up a cached recipe batch: local tier, then shared. Entries
// failing the shape check are treated as a miss. The second return value
// reports whether a usable entry was found.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, bool) {
	if t == nil {
		return nil, false
	}
	k := t.fullKey(key)

	if data := t.local.Get(k); data != nil {
		if !wellShaped(data) {
			metrics.CacheLookups.WithLabelValues("local", "miss").Inc()
			return nil, false
		}
		metrics.CacheLookups.WithLabelValues("local", "hit").Inc()
		return data, true
	}
	metrics.CacheLookups.WithLabelValues("local", "miss").Inc()

	if t.shared == nil {
		return nil, false
	}

	data, err := t.shared.Get(ctx, k)
	if err != nil {
		if !common.IsCode(err, "CACHE_MISS") {
			common.LogWarn("shared cache read failed", zap.Error(err))
			metrics.CacheLookups.WithLabelValues("shared", "error").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("shared", "miss").Inc()
		}
		return nil, false
	}
	if !wellShaped(data) {
		common.LogWarn("shared cache entry failed shape check, treating as miss",
			zap.String("key", k),
		)
		metrics.CacheLookups.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("shared", "hit").Inc()
	// Promote so repeat lookups skip the network.
	t.local.Set(k, data, t.ttl)
	return data, true
}

// Set writes through to both tiers. Entries are overwritten wholesale.
func (t *Tier) Set(ctx context.Context, key string, value []byte) {
	if t == nil {
		return
	}
	k := t.fullKey(key)

	t.local.Set(k, value, t.ttl)

	if t.shared != nil {
		if err := t.shared.Set(ctx, k, value, t.ttl); err != nil {
			common.LogWarn("shared cache write failed", zap.Error(err))
		}
	}
}

// Ready reports shared-store health for readiness probes. Local-only mode
// is still ready.
func (t *Tier) Ready(ctx context.Context) error {
	if t == nil || t.shared == nil {
		return nil
	}
	return t.shared.Ping(ctx)
}

// Stats exposes local tier statistics.
func (t *Tier) Stats() map[string]interface{} {
	if t == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := t.local.Stats()
	stats["shared"] = t.shared != nil
	return stats
}

// Close releases both tiers.
func (t *Tier) Close() {
	if t == nil {
		return
	}
	t.local.Close()
	if t.shared != nil {
		_ = t.shared.Close()
	}
}

// wellShaped is the lightweight read-time check from the cache contract:
// a recipes array with at least one element, each carrying a title, a
// positive time and 1..8 steps. Anything else is a miss, not an error.
func wellShaped(data []byte) bool {
	doc := gjson.ParseBytes(data)
	recipes := doc.Get("recipes")
	if !recipes.IsArray() {
		return false
	}
	arr := recipes.Array()
	if len(arr) == 0 {
		return false
	}
	for _, r := range arr {
		if r.Get("title").String() == "" {
			return false
		}
		if r.Get("time_min").Int() <= 0 {
			return false
		}
		steps := r.Get("steps").Array()
		if len(steps) < 1 || len(steps) > 8 {
			return false
		}
	}
	return true
}
