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

func newEstimatorWithServer(t *testing.T, handler http.HandlerFunc) *Estimator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewEstimator(config.OpenRouterConfig{
		APIKey:    "test-key",
		Model:     "openai/gpt-4o-mini",
		MaxTokens: 500,
	})
	p.client.SetBaseURL(srv.URL)
	return p
}

func chatResponse(content string) string {
	body, _ := common.ToJSON(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return body
}

func TestEstimatorDisabledWithoutCredentials(t *testing.T) {
	p := NewEstimator(config.OpenRouterConfig{})
	assert.False(t, p.Enabled())
	assert.Nil(t, p.Resolve(context.Background(), "casserole"))
}

func TestEstimatorParsesModelOutput(t *testing.T) {
	p := newEstimatorWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		content := "```json\n" +
			`{"name":"beef stew","ingredients":[{"name":"beef","amount":"200g"},{"name":"carrot"},{"name":"potato"}],"per100g":{"calories":120,"protein":9,"fat":5,"carbs":8}}` +
			"\n```"
		writeJSON(t, w, chatResponse(content))
	})

	got := p.Resolve(context.Background(), "beef stew")
	require.NotNil(t, got)

	assert.Equal(t, "beef stew", got.Name)
	assert.Equal(t, common.SourceEstimated, got.Source)
	assert.Len(t, got.Ingredients, 3)
	assert.Equal(t, "200g", got.Ingredients[0].Amount)
	assert.Equal(t, 120.0, got.Per100g.Calories)

	// 信心值在 0.55–0.70 區間取樣
	assert.GreaterOrEqual(t, got.Confidence, 0.55)
	assert.LessOrEqual(t, got.Confidence, 0.70)
}

func TestEstimatorRepairsUnquotedKeys(t *testing.T) {
	p := newEstimatorWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, chatResponse(`{name: "plain rice", ingredients: [], per100g: {calories: 130, protein: 2.7, fat: 0.3, carbs: 28}}`))
	})

	got := p.Resolve(context.Background(), "plain rice")
	require.NotNil(t, got)
	assert.Equal(t, "plain rice", got.Name)
	assert.Equal(t, 130.0, got.Per100g.Calories)

	// 模型未給成分時退回自身名稱
	assert.Equal(t, []common.Ingredient{{Name: "plain rice"}}, got.Ingredients)
}

func TestEstimatorEmptyChoices(t *testing.T) {
	p := newEstimatorWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"choices":[]}`)
	})
	assert.Nil(t, p.Resolve(context.Background(), "anything"))
}

func TestEstimatorGarbageOutput(t *testing.T) {
	p := newEstimatorWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, chatResponse("I cannot estimate this food."))
	})
	assert.Nil(t, p.Resolve(context.Background(), "anything"))
}
