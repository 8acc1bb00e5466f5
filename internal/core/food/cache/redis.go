package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"nutrition-enricher/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "enrich:"

// RedisStore Redis 快取存儲
// 條目 TTL 交給 Redis 本身，過期即自動消失
type RedisStore struct {
	client *redis.Client
	hits   int64
	misses int64
}

// NewRedisStore 創建 Redis 快取存儲並測試連接
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 快取已初始化", zap.String("addr", addr))

	return &RedisStore{client: client}, nil
}

// Get 讀取條目
func (s *RedisStore) Get(ctx context.Context, hash string) (*Entry, bool) {
	data, err := s.client.Get(ctx, redisKeyPrefix+hash).Bytes()
	if err != nil {
		atomic.AddInt64(&s.misses, 1)
		if err != redis.Nil {
			common.LogWarn("Redis 讀取失敗", zap.Error(err), zap.String("鍵", hash))
		}
		common.LogCacheMiss("redis", hash)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		atomic.AddInt64(&s.misses, 1)
		common.LogWarn("快取條目解析失敗", zap.Error(err), zap.String("鍵", hash))
		return nil, false
	}

	// Redis TTL 理論上已處理過期，雙重檢查以防時鐘偏差
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		atomic.AddInt64(&s.misses, 1)
		common.LogCacheMiss("redis", hash)
		return nil, false
	}

	atomic.AddInt64(&s.hits, 1)
	common.LogCacheHit("redis", hash)
	return &entry, true
}

// Put 寫入條目（upsert）
func (s *RedisStore) Put(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("cache entry already expired")
	}

	if err := s.client.Set(ctx, redisKeyPrefix+entry.QueryHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	common.LogInfo("快取已儲存",
		zap.String("鍵", entry.QueryHash),
		zap.String("source", string(entry.Source)),
		zap.Bool("low_value", entry.LowValue),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// Stats 獲取存儲統計信息
func (s *RedisStore) Stats() map[string]interface{} {
	hits := atomic.LoadInt64(&s.hits)
	misses := atomic.LoadInt64(&s.misses)
	return map[string]interface{}{
		"backend": "redis",
		"hits":    hits,
		"misses":  misses,
	}
}

// Close 關閉存儲
func (s *RedisStore) Close() error {
	return s.client.Close()
}
