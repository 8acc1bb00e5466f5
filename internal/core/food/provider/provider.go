package provider

import (
	"context"
	"math"
	"time"

	"nutrition-enricher/internal/pkg/common"
)

// 單次來源調用的時間預算
// 超時的調用視為無結果，不重試；單一請求內每個來源最多被調用一次
const (
	searchTimeout  = 1200 * time.Millisecond
	instantTimeout = 1000 * time.Millisecond
	itemTimeout    = 1000 * time.Millisecond
	naturalTimeout = 1200 * time.Millisecond
)

// Provider 營養資料來源
// Resolve 絕不讓錯誤越過自身邊界：網路、解析、超時一律在內部
// 記錄並轉換為 nil。憑證缺失的來源 Enabled 回報 false 且 Resolve
// 立即回傳 nil。
type Provider interface {
	// Tag 回報來源標識
	Tag() common.Source

	// Enabled 回報來源是否已配置憑證
	Enabled() bool

	// Resolve 解析查詢，失敗時回傳 nil
	Resolve(ctx context.Context, query string) *common.EnrichedFood
}

// round1 四捨五入到小數一位
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// optional 將原始值轉為選填欄位，0 視為缺值
func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

// optional1 同 optional，但四捨五入到小數一位
func optional1(v float64) *float64 {
	if v == 0 {
		return nil
	}
	r := round1(v)
	return &r
}
