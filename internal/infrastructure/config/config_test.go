package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.OpenRouter.Model)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Cache.LowValueTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Cache.FullValueTTL)
	assert.Equal(t, time.Duration(0), cfg.DedupWindow)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FDC_API_KEY", "fdc-secret")
	t.Setenv("NUTRITIONIX_APP_ID", "nix-app")
	t.Setenv("NUTRITIONIX_API_KEY", "nix-secret")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "fdc-secret", cfg.FDC.APIKey)
	assert.True(t, cfg.FDC.Enabled())
	assert.True(t, cfg.Nutritionix.Enabled())
	assert.False(t, cfg.Cache.Enabled)
}

func TestProviderEnabled(t *testing.T) {
	assert.False(t, FDCConfig{}.Enabled())
	assert.True(t, FDCConfig{APIKey: "k"}.Enabled())

	// 成對憑證缺一不可
	assert.False(t, EdamamConfig{AppID: "id"}.Enabled())
	assert.False(t, NutritionixConfig{APIKey: "k"}.Enabled())
	assert.True(t, EdamamConfig{AppID: "id", AppKey: "k"}.Enabled())
	assert.True(t, NutritionixConfig{AppID: "id", APIKey: "k"}.Enabled())

	assert.False(t, OpenRouterConfig{}.Enabled())
	assert.True(t, OpenRouterConfig{APIKey: "k"}.Enabled())
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey(""))
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", MaskAPIKey("abcdefgh-stuvwxyz"))
}
