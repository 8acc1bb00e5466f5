package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nutrition-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(hash string, ttl time.Duration) *Entry {
	return &Entry{
		QueryHash:       hash,
		NormalizedQuery: hash,
		Payload:         &common.EnrichedFood{Name: hash, Source: common.SourceFDC},
		Source:          common.SourceFDC,
		Confidence:      0.85,
		ExpiresAt:       time.Now().Add(ttl),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore(10, time.Minute)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Put(ctx, testEntry("k1", time.Hour)))

	got, ok := m.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "k1", got.Payload.Name)

	_, ok = m.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryStoreExpiryAtRead(t *testing.T) {
	m := NewMemoryStore(10, time.Hour)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Put(ctx, testEntry("stale", -time.Second)))

	// 過期條目在讀取時被移除，視為未命中
	_, ok := m.Get(ctx, "stale")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Stats()["size"])
}

func TestMemoryStoreUpsert(t *testing.T) {
	m := NewMemoryStore(10, time.Minute)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Put(ctx, testEntry("k1", time.Hour)))

	updated := testEntry("k1", time.Hour)
	updated.Payload.Name = "updated"
	require.NoError(t, m.Put(ctx, updated))

	got, ok := m.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, "updated", got.Payload.Name)
	assert.Equal(t, 1, m.Stats()["size"])
}

func TestMemoryStoreLRUEviction(t *testing.T) {
	m := NewMemoryStore(3, time.Hour)
	defer m.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Put(ctx, testEntry(fmt.Sprintf("k%d", i), time.Hour)))
		time.Sleep(time.Millisecond)
	}

	// 訪問 k0 使其不會被淘汰
	_, ok := m.Get(ctx, "k0")
	require.True(t, ok)

	require.NoError(t, m.Put(ctx, testEntry("k3", time.Hour)))

	_, ok = m.Get(ctx, "k1")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "k0")
	assert.True(t, ok)
	_, ok = m.Get(ctx, "k3")
	assert.True(t, ok)
}

func TestMemoryStoreStats(t *testing.T) {
	m := NewMemoryStore(10, time.Minute)
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Put(ctx, testEntry("k1", time.Hour)))

	m.Get(ctx, "k1")
	m.Get(ctx, "k1")
	m.Get(ctx, "nope")

	stats := m.Stats()
	assert.Equal(t, "memory", stats["backend"])
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.InDelta(t, 2.0/3.0, stats["hit_ratio"].(float64), 1e-9)
}
