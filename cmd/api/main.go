package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-enricher/internal/api"
	"nutrition-enricher/internal/core/food/cache"
	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 使用 logger 記錄啟動信息
	common.LogInfo("載入設定",
		zap.String("fdc_key", config.MaskAPIKey(cfg.FDC.APIKey)),
		zap.String("nutritionix_key", config.MaskAPIKey(cfg.Nutritionix.APIKey)),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
	)

	// 初始化快取：優先 Redis，連不上時退回記憶體存儲
	store := newCacheStore(cfg)
	if store != nil {
		defer store.Close()
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, store)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// newCacheStore 建立快取存儲
// 快取停用時回傳 nil；Redis 不可用時降級為記憶體存儲
func newCacheStore(cfg *config.Config) cache.Store {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	if cfg.Cache.RedisAddr != "" {
		store, err := cache.NewRedisStore(cfg.Cache.RedisAddr)
		if err == nil {
			return store
		}
		common.LogWarn("Redis 連接失敗，改用記憶體快取",
			zap.Error(err),
			zap.String("addr", cfg.Cache.RedisAddr),
		)
	}

	return cache.NewMemoryStore(cfg.Cache.MaxSize, cfg.Cache.CleanupInterval)
}
