package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	FDC         FDCConfig         `mapstructure:"fdc"`
	Edamam      EdamamConfig      `mapstructure:"edamam"`
	Nutritionix NutritionixConfig `mapstructure:"nutritionix"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// FDCConfig USDA FoodData Central 配置
// APIKey 為空時此來源在建構時即被停用
type FDCConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// Enabled 回報此資料來源是否可用
func (c FDCConfig) Enabled() bool { return c.APIKey != "" }

// EdamamConfig Edamam 食品資料庫配置
type EdamamConfig struct {
	AppID  string `mapstructure:"app_id"`
	AppKey string `mapstructure:"app_key"`
}

// Enabled 回報此資料來源是否可用
func (c EdamamConfig) Enabled() bool { return c.AppID != "" && c.AppKey != "" }

// NutritionixConfig Nutritionix 配置
type NutritionixConfig struct {
	AppID  string `mapstructure:"app_id"`
	APIKey string `mapstructure:"api_key"`
}

// Enabled 回報此資料來源是否可用
func (c NutritionixConfig) Enabled() bool { return c.AppID != "" && c.APIKey != "" }

// OpenRouterConfig OpenRouter 配置（生成式估算來源）
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Enabled 回報生成式估算來源是否可用
func (c OpenRouterConfig) Enabled() bool { return c.APIKey != "" }

// CacheConfig 快取配置
// LowValueTTL 用於 low_value 結果，FullValueTTL 用於完整結果
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	MaxSize         int           `mapstructure:"max_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	LowValueTTL     time.Duration `mapstructure:"low_value_ttl"`
	FullValueTTL    time.Duration `mapstructure:"full_value_ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時不視為錯誤）
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("fdc.api_key", "FDC_API_KEY")
	viper.BindEnv("edamam.app_id", "EDAMAM_APP_ID")
	viper.BindEnv("edamam.app_key", "EDAMAM_APP_KEY")
	viper.BindEnv("nutritionix.app_id", "NUTRITIONIX_APP_ID")
	viper.BindEnv("nutritionix.api_key", "NUTRITIONIX_API_KEY")
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"fdc_api_key:", MaskAPIKey(viper.GetString("fdc.api_key")),
		"nutritionix_api_key:", MaskAPIKey(viper.GetString("nutritionix.api_key")),
		"openrouter_model:", viper.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "nutrition-enricher")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	viper.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	viper.SetDefault("openrouter.max_tokens", 500)
	viper.SetDefault("openrouter.timeout", "60s")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.redis_addr", "")
	viper.SetDefault("cache.max_size", 10000)
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.low_value_ttl", "6h")
	viper.SetDefault("cache.full_value_ttl", "2160h") // 90 天

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重窗口預設（0 表示停用）
	viper.SetDefault("dedup_window", "0s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.LowValueTTL <= 0 || config.Cache.FullValueTTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	return nil
}
