package health

import (
	"net/http"
	"runtime"
	"time"

	"nutrition-enricher/internal/core/food/cache"
	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Providers map[string]bool        `json:"providers"`
}

// HealthCheck 健康檢查處理器
// 回報運行時資訊、快取統計與各來源啟用狀態
func HealthCheck(cfg *config.Config, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   cfg.App.Version,
			Runtime: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc":       m.Alloc,
					"total_alloc": m.TotalAlloc,
					"sys":         m.Sys,
					"num_gc":      m.NumGC,
				},
			},
			Providers: map[string]bool{
				"fdc":         cfg.FDC.Enabled(),
				"edamam":      cfg.Edamam.Enabled(),
				"nutritionix": cfg.Nutritionix.Enabled(),
				"estimator":   cfg.OpenRouter.Enabled(),
			},
		}

		if store != nil {
			response.Cache = store.Stats()
		}

		common.LogDebug("Health check request")

		c.JSON(http.StatusOK, response)
	}
}

// ReadinessCheck 就緒檢查處理器
func ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
