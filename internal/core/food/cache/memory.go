package cache

import (
	"context"
	"sync"
	"time"

	"nutrition-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 進程內快取存儲
// Redis 不可用時的後備方案；過期在讀取時強制檢查
type MemoryStore struct {
	mu      sync.RWMutex
	store   map[string]memoryEntry
	maxSize int
	stats   memoryStats
	done    chan struct{}
	once    sync.Once
}

// memoryEntry 內部條目，附訪問統計供 LRU 淘汰
type memoryEntry struct {
	entry      *Entry
	lastAccess time.Time
}

// memoryStats 存儲統計
type memoryStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// NewMemoryStore 創建進程內快取存儲
func NewMemoryStore(maxSize int, cleanupInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		store:   make(map[string]memoryEntry),
		maxSize: maxSize,
		done:    make(chan struct{}),
	}

	// 啟動清理過期條目的協程
	go m.startCleanup(cleanupInterval)

	common.LogInfo("記憶體快取已初始化",
		zap.Int("最大容量", maxSize),
		zap.Duration("清理間隔", cleanupInterval),
	)

	return m
}

// Get 讀取條目，過期條目視為未命中並即時移除
func (m *MemoryStore) Get(ctx context.Context, hash string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	me, exists := m.store[hash]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("memory", hash)
		return nil, false
	}

	if !me.entry.ExpiresAt.IsZero() && time.Now().After(me.entry.ExpiresAt) {
		delete(m.store, hash)
		m.stats.evictions++
		m.stats.misses++
		common.LogInfo("快取已過期", zap.String("鍵", hash))
		return nil, false
	}

	me.lastAccess = time.Now()
	m.store[hash] = me
	m.stats.hits++
	common.LogCacheHit("memory", hash)
	return me.entry, true
}

// Put 寫入條目（upsert）
func (m *MemoryStore) Put(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 檢查容量，先清過期再做 LRU
	if _, exists := m.store[entry.QueryHash]; !exists && len(m.store) >= m.maxSize {
		evicted := m.cleanupLocked()
		if evicted > 0 {
			common.LogInfo("快取清理執行", zap.Int("清理數量", evicted))
		}
		if len(m.store) >= m.maxSize {
			m.evictLRULocked()
		}
	}

	m.store[entry.QueryHash] = memoryEntry{
		entry:      entry,
		lastAccess: time.Now(),
	}

	common.LogInfo("快取已儲存",
		zap.String("鍵", entry.QueryHash),
		zap.String("source", string(entry.Source)),
		zap.Bool("low_value", entry.LowValue),
		zap.Time("expires_at", entry.ExpiresAt),
	)
	return nil
}

// startCleanup 啟動清理過期條目的協程
func (m *MemoryStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanupLocked 清理過期條目，呼叫端需持有鎖
func (m *MemoryStore) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, me := range m.store {
		if !me.entry.ExpiresAt.IsZero() && now.After(me.entry.ExpiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	return count
}

// evictLRULocked 淘汰最久未訪問的條目，呼叫端需持有鎖
func (m *MemoryStore) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time

	for key, me := range m.store {
		if oldestKey == "" || me.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = me.lastAccess
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 獲取存儲統計信息
func (m *MemoryStore) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.stats.hits + m.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}

	return map[string]interface{}{
		"backend":   "memory",
		"size":      len(m.store),
		"max_size":  m.maxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"hit_ratio": hitRatio,
	}
}

// Close 關閉存儲
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]memoryEntry)

	common.LogInfo("記憶體快取已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
