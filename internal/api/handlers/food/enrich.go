package food

import (
	"errors"
	"net/http"

	foodService "nutrition-enricher/internal/core/food"
	"nutrition-enricher/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnrichRequest 營養解析請求
// locale 未指定時為 "auto"
type EnrichRequest struct {
	Query  string `json:"query"`
	Locale string `json:"locale,omitempty"`
}

// HandleEnrich 處理 /food/enrich 營養解析 API
func HandleEnrich(svc *foodService.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := requestid.Get(c)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
		}

		var req EnrichRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
			return
		}

		result, err := svc.Enrich(c.Request.Context(), req.Query, req.Locale)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrQueryRequired):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
			case errors.Is(err, common.ErrNoNutritionData):
				c.JSON(http.StatusNotFound, gin.H{"error": "No nutrition data found"})
			default:
				common.LogError("營養解析失敗",
					zap.Error(err),
					zap.String("request_id", requestID),
					zap.String("query", req.Query),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Enrichment failed",
					"details": err.Error(),
				})
			}
			return
		}

		common.LogInfo("營養解析成功",
			zap.String("request_id", requestID),
			zap.String("source", string(result.Source)),
			zap.Bool("low_value", result.LowValue),
		)

		c.JSON(http.StatusOK, result)
	}
}
