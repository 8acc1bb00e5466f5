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

func nixTestConfig() config.NutritionixConfig {
	return config.NutritionixConfig{AppID: "test-app", APIKey: "test-key"}
}

func newNixWithServer(t *testing.T, handler http.HandlerFunc) *Nutritionix {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewNutritionix(nixTestConfig())
	p.client.SetBaseURL(srv.URL)
	return p
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestPickCandidate(t *testing.T) {
	candidates := []nixCandidate{
		{FoodName: "Peanut Butter Cups", NixItemID: "a"},
		{FoodName: "Peanut Butter", NixItemID: "b"},
		{FoodName: "Almond Butter", NixItemID: "c"},
	}

	t.Run("完全同名優先", func(t *testing.T) {
		got := pickCandidate("peanut butter", candidates)
		require.NotNil(t, got)
		assert.Equal(t, "b", got.NixItemID)
	})

	t.Run("無同名時取前綴相符", func(t *testing.T) {
		got := pickCandidate("peanut", candidates)
		require.NotNil(t, got)
		assert.Equal(t, "a", got.NixItemID)
	})

	t.Run("皆不相符時取第一筆", func(t *testing.T) {
		got := pickCandidate("chocolate", candidates)
		require.NotNil(t, got)
		assert.Equal(t, "a", got.NixItemID)
	})

	t.Run("空清單回傳 nil", func(t *testing.T) {
		assert.Nil(t, pickCandidate("anything", nil))
	})
}

func TestNutritionixDisabledWithoutCredentials(t *testing.T) {
	p := NewNutritionix(config.NutritionixConfig{})
	assert.False(t, p.Enabled())
	assert.Nil(t, p.Resolve(context.Background(), "broccoli"))
}

func TestNutritionixBrandedLookup(t *testing.T) {
	p := newNixWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-app", r.Header.Get("x-app-id"))
		assert.Equal(t, "test-key", r.Header.Get("x-app-key"))

		switch r.URL.Path {
		case "/v2/search/instant":
			writeJSON(t, w, `{"branded":[{"food_name":"Protein Bar","nix_item_id":"nx-123"}],"common":[]}`)
		case "/v2/search/item":
			assert.Equal(t, "nx-123", r.URL.Query().Get("nix_item_id"))
			writeJSON(t, w, `{"foods":[{
				"food_name":"Protein Bar","brand_name":"Acme",
				"serving_weight_grams":50,
				"nf_calories":200,"nf_protein":10,"nf_total_fat":7,"nf_total_carbohydrate":24,
				"nf_sodium":120,
				"nf_ingredient_statement":"peanuts, whey protein (milk), cocoa butter"
			}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got := p.Resolve(context.Background(), "protein bar")
	require.NotNil(t, got)

	// 每份 50g 的營養值換算到每 100g
	assert.Equal(t, 400.0, got.Per100g.Calories)
	assert.Equal(t, 20.0, got.Per100g.Protein)
	assert.Equal(t, 14.0, got.Per100g.Fat)
	assert.Equal(t, 48.0, got.Per100g.Carbs)
	require.NotNil(t, got.Per100g.Sodium)
	assert.Equal(t, 240.0, *got.Per100g.Sodium)

	// 每份營養值原樣保留
	require.NotNil(t, got.PerServing)
	assert.Equal(t, 50.0, got.PerServing.ServingGrams)
	assert.Equal(t, 200.0, got.PerServing.Calories)

	assert.Equal(t, common.SourceNutritionix, got.Source)
	assert.Equal(t, "nx-123", got.SourceID)
	assert.Equal(t, 0.75, got.Confidence)
	assert.Len(t, got.Ingredients, 3)
	assert.False(t, got.LowValue)
}

func TestNutritionixNaturalFallback(t *testing.T) {
	p := newNixWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/search/instant":
			writeJSON(t, w, `{"branded":[],"common":[{"food_name":"cheddar cheese"}]}`)
		case "/v2/natural/nutrients":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(t, w, `{"foods":[{
				"food_name":"cheddar cheese",
				"serving_weight_grams":100,
				"nf_calories":403,"nf_protein":23,"nf_total_fat":33,"nf_total_carbohydrate":3
			}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got := p.Resolve(context.Background(), "cheddar")
	require.NotNil(t, got)

	// 一般候選沒有成分標示，結果必為 low_value
	assert.True(t, got.LowValue)
	assert.Equal(t, []common.Ingredient{{Name: "cheddar cheese"}}, got.Ingredients)
	assert.Equal(t, 403.0, got.Per100g.Calories)
}

func TestNutritionixItemFailureFallsBackToNatural(t *testing.T) {
	p := newNixWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/search/instant":
			writeJSON(t, w, `{"branded":[{"food_name":"Energy Drink","nix_item_id":"nx-9"}],"common":[{"food_name":"energy drink"}]}`)
		case "/v2/search/item":
			w.WriteHeader(http.StatusNotFound)
		case "/v2/natural/nutrients":
			writeJSON(t, w, `{"foods":[{"food_name":"energy drink","serving_weight_grams":250,"nf_calories":110,"nf_protein":0,"nf_total_fat":0,"nf_total_carbohydrate":28}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got := p.Resolve(context.Background(), "energy drink")
	require.NotNil(t, got)
	assert.True(t, got.LowValue)
	assert.Equal(t, 44.0, got.Per100g.Calories)
}

func TestNutritionixNoCandidates(t *testing.T) {
	p := newNixWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"branded":[],"common":[]}`)
	})
	assert.Nil(t, p.Resolve(context.Background(), "zzz"))
}
