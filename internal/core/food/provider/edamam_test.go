package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edamamTestConfig() config.EdamamConfig {
	return config.EdamamConfig{AppID: "test-app", AppKey: "test-key"}
}

func TestEdamamDisabledWithoutCredentials(t *testing.T) {
	p := NewEdamam(config.EdamamConfig{AppID: "only-id"})
	assert.False(t, p.Enabled())
	assert.Nil(t, p.Resolve(context.Background(), "broccoli"))
}

func TestEdamamParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food-database/v2/parser", r.URL.Path)
		assert.Equal(t, "granola bar", r.URL.Query().Get("ingr"))

		writeJSON(t, w, `{"parsed":[{"food":{
			"foodId":"food_abc",
			"label":"Granola Bar",
			"brand":"Acme",
			"nutrients":{"ENERC_KCAL":471.4,"PROCNT":10.04,"FAT":20.1,"CHOCDF":64.03,"FIBTG":6.55,"NA":210.7},
			"foodContentsLabel":"OATS; HONEY; ALMONDS (ROASTED), CANOLA OIL"
		}}],"hints":[]}`)
	}))
	t.Cleanup(srv.Close)

	p := NewEdamam(edamamTestConfig())
	p.client.SetBaseURL(srv.URL)

	got := p.Resolve(context.Background(), "granola bar")
	require.NotNil(t, got)

	assert.Equal(t, "Granola Bar", got.Name)
	assert.Equal(t, common.SourceEdamam, got.Source)
	assert.Equal(t, "food_abc", got.SourceID)
	assert.Equal(t, 0.78, got.Confidence)
	assert.Contains(t, got.Aliases, "Acme")

	// 熱量取整、巨量營養素取到小數一位、鈉取整
	assert.Equal(t, 471.0, got.Per100g.Calories)
	assert.Equal(t, 10.0, got.Per100g.Protein)
	assert.Equal(t, 20.1, got.Per100g.Fat)
	assert.Equal(t, 64.0, got.Per100g.Carbs)
	require.NotNil(t, got.Per100g.Fiber)
	assert.Equal(t, 6.6, *got.Per100g.Fiber)
	require.NotNil(t, got.Per100g.Sodium)
	assert.Equal(t, 211.0, *got.Per100g.Sodium)

	// 成分標示解析
	require.Len(t, got.Ingredients, 4)
	assert.Equal(t, "OATS", got.Ingredients[0].Name)
	assert.Equal(t, "ALMONDS", got.Ingredients[2].Name)
}

func TestEdamamFallsBackToHints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"parsed":[],"hints":[{"food":{
			"foodId":"food_hint",
			"label":"Brown Rice",
			"nutrients":{"ENERC_KCAL":370,"PROCNT":7.9,"FAT":2.9,"CHOCDF":77.2}
		}}]}`)
	}))
	t.Cleanup(srv.Close)

	p := NewEdamam(edamamTestConfig())
	p.client.SetBaseURL(srv.URL)

	got := p.Resolve(context.Background(), "brown rice")
	require.NotNil(t, got)
	assert.Equal(t, "food_hint", got.SourceID)

	// 沒有成分標示時退回自身名稱
	assert.Equal(t, []common.Ingredient{{Name: "Brown Rice"}}, got.Ingredients)
}

func TestEdamamNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"parsed":[],"hints":[]}`)
	}))
	t.Cleanup(srv.Close)

	p := NewEdamam(edamamTestConfig())
	p.client.SetBaseURL(srv.URL)

	assert.Nil(t, p.Resolve(context.Background(), "zzz"))
}
