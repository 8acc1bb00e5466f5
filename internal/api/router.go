package api

import (
	"time"

	foodHandler "nutrition-enricher/internal/api/handlers/food"
	"nutrition-enricher/internal/api/handlers/health"
	"nutrition-enricher/internal/api/middleware"
	"nutrition-enricher/internal/core/food"
	"nutrition-enricher/internal/core/food/cache"
	"nutrition-enricher/internal/core/food/provider"
	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求體大小限制 (64KB)，查詢請求不應更大
	maxBodySize = 64 << 10
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, store cache.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 初始化來源，憑證缺失的來源在此即為停用
	fdc := provider.NewFDC(cfg.FDC)
	edamam := provider.NewEdamam(cfg.Edamam)
	nutritionix := provider.NewNutritionix(cfg.Nutritionix)
	estimator := provider.NewEstimator(cfg.OpenRouter)

	common.LogInfo("Providers initialized",
		zap.Bool("fdc", fdc.Enabled()),
		zap.Bool("edamam", edamam.Enabled()),
		zap.Bool("nutritionix", nutritionix.Enabled()),
		zap.Bool("estimator", estimator.Enabled()),
	)

	// 初始化解析服務
	enrichSvc := food.NewService(cfg, store, fdc, edamam, nutritionix, estimator)

	// 健康檢查路由
	router.GET("/health", health.HealthCheck(cfg, store))
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	apiGroup := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		apiGroup.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	apiGroup.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		foodGroup := apiGroup.Group("/food")
		{
			// 營養解析
			foodGroup.POST("/enrich", foodHandler.HandleEnrich(enrichSvc))
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
