package common

import (
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"    // 500
)

// 預定義錯誤
var (
	// 查詢字串為空，在任何 I/O 之前即被拒絕
	ErrQueryRequired = NewError(ErrCodeInvalidRequest, "Query is required", http.StatusBadRequest, nil)

	// 所有來源（含生成式估算）都沒有產出結果
	ErrNoNutritionData = NewError(ErrCodeNotFound, "No nutrition data found", http.StatusNotFound, nil)

	// 解析流程中的非預期錯誤
	ErrEnrichmentFailed = NewError(ErrCodeInternalError, "Enrichment failed", http.StatusInternalServerError, nil)

	// 快取停用或未命中時的內部信號，不會離開快取層
	ErrCacheMiss     = NewError("CACHE_MISS", "快取未命中", http.StatusNotFound, nil)
	ErrCacheDisabled = NewError("CACHE_DISABLED", "快取已禁用", http.StatusServiceUnavailable, nil)
)
