package cache

import (
	"context"
	"testing"
	"time"

	"fridgechef/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTier(t *testing.T) *Tier {
	t.Helper()
	tier := NewTier(&config.CacheConfig{
		Enabled:         true,
		MaxSize:         100,
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
		Namespace:       "recipes",
	})
	require.NotNil(t, tier)
	t.Cleanup(tier.Close)
	return tier
}

const goodBatch = `{"recipes":[{"title":"Omelette","time_min":15,"steps":[{"order":1,"action":"Beat eggs"},{"order":2,"action":"Fry"},{"order":3,"action":"Serve"}]}]}`

func TestTierRoundTrip(t *testing.T) {
	tier := testTier(t)
	ctx := context.Background()

	_, ok := tier.Get(ctx, "v4::egg")
	assert.False(t, ok)

	tier.Set(ctx, "v4::egg", []byte(goodBatch))

	data, ok := tier.Get(ctx, "v4::egg")
	require.True(t, ok)
	assert.JSONEq(t, goodBatch, string(data))
}

func TestTierShapeCheck(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `garbage`},
		{"no recipes", `{"recipes":[]}`},
		{"recipes not array", `{"recipes":"yes"}`},
		{"missing title", `{"recipes":[{"time_min":10,"steps":[{"action":"x"}]}]}`},
		{"zero time", `{"recipes":[{"title":"T","time_min":0,"steps":[{"action":"x"}]}]}`},
		{"no steps", `{"recipes":[{"title":"T","time_min":10,"steps":[]}]}`},
		{"too many steps", `{"recipes":[{"title":"T","time_min":10,"steps":[1,2,3,4,5,6,7,8,9]}]}`},
	}

	tier := testTier(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier.Set(ctx, "k", []byte(tt.data))
			_, ok := tier.Get(ctx, "k")
			assert.False(t, ok, "malformed entry must read as a miss")
		})
	}
}

func TestTierNamespacing(t *testing.T) {
	tier := testTier(t)
	ctx := context.Background()

	tier.Set(ctx, "key", []byte(goodBatch))

	// The raw key is namespaced in the local store.
	assert.Nil(t, tier.local.Get("key"))
	assert.NotNil(t, tier.local.Get("recipes:key"))
}

func TestTierDisabled(t *testing.T) {
	tier := NewTier(&config.CacheConfig{Enabled: false})
	assert.Nil(t, tier)

	// All operations on a nil tier are safe no-ops.
	ctx := context.Background()
	_, ok := tier.Get(ctx, "k")
	assert.False(t, ok)
	tier.Set(ctx, "k", []byte(goodBatch))
	assert.NoError(t, tier.Ready(ctx))
	assert.Equal(t, map[string]interface{}{"enabled": false}, tier.Stats())
	tier.Close()
}

func TestTierLocalOnlyReady(t *testing.T) {
	tier := testTier(t)
	assert.NoError(t, tier.Ready(context.Background()))
}
