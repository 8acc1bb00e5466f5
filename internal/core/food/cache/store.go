package cache

import (
	"context"
	"time"

	"nutrition-enricher/internal/pkg/common"
)

// Entry 快取條目，每個 query hash 僅存在一筆
type Entry struct {
	QueryHash       string               `json:"query_hash"`
	NormalizedQuery string               `json:"normalized_query"`
	Payload         *common.EnrichedFood `json:"payload"`
	Source          common.Source        `json:"source"`
	Confidence      float64              `json:"confidence"`
	LowValue        bool                 `json:"low_value"`
	ExpiresAt       time.Time            `json:"expires_at"`
}

// Store 快取存儲介面
// Put 為 upsert（last-writer-wins）；同一 hash 的並發寫入是可接受的競態
type Store interface {
	// Get 讀取條目，過期條目視為未命中
	Get(ctx context.Context, hash string) (*Entry, bool)

	// Put 寫入條目，TTL 取自 entry.ExpiresAt
	Put(ctx context.Context, entry *Entry) error

	// Stats 獲取存儲統計信息
	Stats() map[string]interface{}

	// Close 關閉存儲
	Close() error
}
