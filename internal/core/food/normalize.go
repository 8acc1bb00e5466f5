package food

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultLocale 未指定時的語系
const DefaultLocale = "auto"

// NormalizeQuery 正規化查詢字串
// 小寫並去除前後空白；空字串在任何 I/O 之前即被拒絕
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// QueryHash 計算快取鍵
// 對 "{normalized}|{locale}" 取 SHA-256，十六進位編碼
func QueryHash(normalized, locale string) string {
	sum := sha256.Sum256([]byte(normalized + "|" + locale))
	return hex.EncodeToString(sum[:])
}

// isComplexQuery 判斷查詢形態
// 含空白或非 ASCII 字元的查詢多半是複合菜餚，優先走品牌來源
func isComplexQuery(normalized string) bool {
	for _, r := range normalized {
		if r == ' ' || r > 127 {
			return true
		}
	}
	return false
}
