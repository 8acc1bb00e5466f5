package provider

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Estimator 生成式估算來源，最後手段
// 信心值在 0.55–0.70 間均勻取樣以反映較低的可信度
type Estimator struct {
	cfg    config.OpenRouterConfig
	client *resty.Client
}

// NewEstimator 創建生成式估算來源
func NewEstimator(cfg config.OpenRouterConfig) *Estimator {
	client := resty.New().
		SetBaseURL(openRouterBaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://nutrition-enricher.com").
		SetHeader("X-Title", "Nutrition Enricher")
	return &Estimator{cfg: cfg, client: client}
}

// Tag 回報來源標識
func (p *Estimator) Tag() common.Source { return common.SourceEstimated }

// Enabled 回報來源是否已配置憑證
func (p *Estimator) Enabled() bool { return p.cfg.Enabled() }

// estimatePayload 模型輸出的結構
type estimatePayload struct {
	Name        string `json:"name"`
	Ingredients []struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
	} `json:"ingredients"`
	Per100g common.Nutrients `json:"per100g"`
}

// Resolve 解析查詢
func (p *Estimator) Resolve(ctx context.Context, query string) *common.EnrichedFood {
	if !p.Enabled() {
		return nil
	}

	start := time.Now()
	result, err := p.estimate(ctx, query)
	common.LogProviderCall(common.SourceEstimated, query, time.Since(start), err)
	if err != nil {
		return nil
	}
	return result
}

func (p *Estimator) estimate(ctx context.Context, query string) (*common.EnrichedFood, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(`Analyze "%s" and provide nutrition per 100g. Include an ingredients list if it is a dish. Return compact JSON only, no markdown, in this shape:
{"name":"food name","ingredients":[{"name":"ingredient","amount":"optional amount"}],"per100g":{"calories":0,"protein":0,"fat":0,"carbs":0,"fiber":0,"sugar":0,"sodium":0,"potassium":0,"calcium":0,"iron":0}}`, query)

	req := map[string]interface{}{
		"model": p.cfg.Model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a nutrition expert. Analyze food items and provide nutritional estimates per 100g. Return valid JSON only.",
			},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
		"max_tokens":  p.cfg.MaxTokens,
	}

	var data struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&data).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("estimator request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("estimator status %d", resp.StatusCode())
	}
	if len(data.Choices) == 0 || data.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("empty estimator response")
	}

	// 模型輸出偶爾夾帶圍欄或未加引號的鍵
	content := common.ExtractJSONObject(data.Choices[0].Message.Content)
	var parsed estimatePayload
	if err := common.ParseJSON(content, &parsed); err != nil {
		if err2 := common.ParseJSON(common.QuoteJSONKeys(content), &parsed); err2 != nil {
			return nil, fmt.Errorf("failed to parse estimator response: %w", err)
		}
	}

	name := parsed.Name
	if name == "" {
		name = query
	}

	ingredients := make([]common.Ingredient, 0, len(parsed.Ingredients))
	for _, ing := range parsed.Ingredients {
		if ing.Name == "" {
			continue
		}
		ingredients = append(ingredients, common.Ingredient{Name: ing.Name, Amount: ing.Amount})
		if len(ingredients) >= maxIngredients {
			break
		}
	}
	if len(ingredients) == 0 {
		ingredients = []common.Ingredient{{Name: name}}
	}

	common.LogDebug("生成式估算成功",
		zap.String("name", name),
		zap.Int("ingredient_count", len(ingredients)),
	)

	return &common.EnrichedFood{
		Name:        name,
		Aliases:     []string{name},
		Locale:      "auto",
		Ingredients: ingredients,
		Per100g:     common.ValidateEnergy(parsed.Per100g),
		Source:      common.SourceEstimated,
		Confidence:  0.55 + rand.Float64()*0.15,
	}, nil
}
