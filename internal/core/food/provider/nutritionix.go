package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const nutritionixBaseURL = "https://trackapi.nutritionix.com"

// nutritionixConfidence 此來源的固定信心值
const nutritionixConfidence = 0.75

// Nutritionix 品牌商品資料庫來源，兩段式查詢
// 第一段 instant 搜尋取得候選，第二段對品牌候選做逐項深查；
// 沒有品牌候選或深查失敗時退回自然語言營養估算
type Nutritionix struct {
	cfg    config.NutritionixConfig
	client *resty.Client
}

// NewNutritionix 創建 Nutritionix 來源
func NewNutritionix(cfg config.NutritionixConfig) *Nutritionix {
	client := resty.New().SetBaseURL(nutritionixBaseURL)
	return &Nutritionix{cfg: cfg, client: client}
}

// Tag 回報來源標識
func (p *Nutritionix) Tag() common.Source { return common.SourceNutritionix }

// Enabled 回報來源是否已配置憑證
func (p *Nutritionix) Enabled() bool { return p.cfg.Enabled() }

// nixCandidate instant 搜尋的候選項目
type nixCandidate struct {
	FoodName  string `json:"food_name"`
	NixItemID string `json:"nix_item_id"`
}

// nixInstantResponse instant 搜尋響應
type nixInstantResponse struct {
	Branded []nixCandidate `json:"branded"`
	Common  []nixCandidate `json:"common"`
}

// nixFood 逐項深查與自然語言端點共用的食品結構
type nixFood struct {
	FoodName            string  `json:"food_name"`
	BrandName           string  `json:"brand_name"`
	NixItemID           string  `json:"nix_item_id"`
	ServingWeightGrams  float64 `json:"serving_weight_grams"`
	NfCalories          float64 `json:"nf_calories"`
	NfProtein           float64 `json:"nf_protein"`
	NfTotalFat          float64 `json:"nf_total_fat"`
	NfTotalCarbohydrate float64 `json:"nf_total_carbohydrate"`
	NfDietaryFiber      float64 `json:"nf_dietary_fiber"`
	NfSugars            float64 `json:"nf_sugars"`
	NfSodium            float64 `json:"nf_sodium"`
	NfPotassium         float64 `json:"nf_potassium"`
	NfSaturatedFat      float64 `json:"nf_saturated_fat"`
	NfIngredientStmt    string  `json:"nf_ingredient_statement"`
}

// nixFoodsResponse item / natural 端點響應
type nixFoodsResponse struct {
	Foods []nixFood `json:"foods"`
}

// Resolve 解析查詢
func (p *Nutritionix) Resolve(ctx context.Context, query string) *common.EnrichedFood {
	if !p.Enabled() {
		return nil
	}

	start := time.Now()
	result, err := p.search(ctx, query)
	common.LogProviderCall(common.SourceNutritionix, query, time.Since(start), err)
	if err != nil {
		return nil
	}
	return result
}

func (p *Nutritionix) search(ctx context.Context, query string) (*common.EnrichedFood, error) {
	// 第一段：instant 搜尋取得品牌與一般候選
	instant, err := p.instantSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	branded := pickCandidate(query, instant.Branded)
	commonPick := pickCandidate(query, instant.Common)
	if branded == nil && commonPick == nil {
		return nil, fmt.Errorf("no nutritionix candidates")
	}

	// 第二段：品牌候選走逐項深查，取得成分標示
	if branded != nil && branded.NixItemID != "" {
		result, err := p.itemLookup(ctx, query, branded)
		if err == nil {
			return result, nil
		}
		common.LogWarn("Nutritionix 逐項深查失敗，退回自然語言估算",
			zap.String("nix_item_id", branded.NixItemID),
			zap.Error(err),
		)
	}

	// 一般候選沒有成分標示，結果必為 low_value
	naturalQuery := query
	if commonPick != nil {
		naturalQuery = commonPick.FoodName
	}
	return p.naturalLookup(ctx, naturalQuery)
}

// pickCandidate 在單一候選清單內挑選：完全同名 > 前綴相符 > 第一筆
func pickCandidate(query string, candidates []nixCandidate) *nixCandidate {
	if len(candidates) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range candidates {
		if strings.ToLower(candidates[i].FoodName) == q {
			return &candidates[i]
		}
	}
	for i := range candidates {
		if strings.HasPrefix(strings.ToLower(candidates[i].FoodName), q) {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

func (p *Nutritionix) instantSearch(ctx context.Context, query string) (*nixInstantResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, instantTimeout)
	defer cancel()

	var data nixInstantResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-app-id", p.cfg.AppID).
		SetHeader("x-app-key", p.cfg.APIKey).
		SetQueryParam("query", query).
		SetResult(&data).
		Get("/v2/search/instant")
	if err != nil {
		return nil, fmt.Errorf("nutritionix instant request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutritionix instant status %d", resp.StatusCode())
	}
	return &data, nil
}

func (p *Nutritionix) itemLookup(ctx context.Context, query string, candidate *nixCandidate) (*common.EnrichedFood, error) {
	ctx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	var data nixFoodsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-app-id", p.cfg.AppID).
		SetHeader("x-app-key", p.cfg.APIKey).
		SetQueryParam("nix_item_id", candidate.NixItemID).
		SetResult(&data).
		Get("/v2/search/item")
	if err != nil {
		return nil, fmt.Errorf("nutritionix item request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutritionix item status %d", resp.StatusCode())
	}
	if len(data.Foods) == 0 {
		return nil, fmt.Errorf("no nutritionix item data")
	}

	food := data.Foods[0]
	result := p.convert(&food, query)
	result.SourceID = candidate.NixItemID
	if candidate.FoodName != "" {
		result.Aliases = append(result.Aliases, candidate.FoodName)
	}
	result.LowValue = len(result.Ingredients) <= 1

	common.LogDebug("Nutritionix 逐項深查成功",
		zap.String("nix_item_id", candidate.NixItemID),
		zap.Int("ingredient_count", len(result.Ingredients)),
	)
	return result, nil
}

func (p *Nutritionix) naturalLookup(ctx context.Context, query string) (*common.EnrichedFood, error) {
	ctx, cancel := context.WithTimeout(ctx, naturalTimeout)
	defer cancel()

	var data nixFoodsResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-app-id", p.cfg.AppID).
		SetHeader("x-app-key", p.cfg.APIKey).
		SetBody(map[string]string{"query": query}).
		SetResult(&data).
		Post("/v2/natural/nutrients")
	if err != nil {
		return nil, fmt.Errorf("nutritionix natural request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("nutritionix natural status %d", resp.StatusCode())
	}
	if len(data.Foods) == 0 {
		return nil, fmt.Errorf("no nutritionix natural data")
	}

	food := data.Foods[0]
	result := p.convert(&food, query)
	result.SourceID = food.NixItemID
	// 一般食品從不攜帶成分標示
	result.LowValue = true
	return result, nil
}

// convert 將每份營養值換算為每 100g 並組裝標準結果
func (p *Nutritionix) convert(food *nixFood, query string) *common.EnrichedFood {
	servingGrams := food.ServingWeightGrams
	if servingGrams <= 0 {
		servingGrams = 100
	}
	scale := 100 / servingGrams

	per100g := common.Nutrients{
		Calories:     math.Round(food.NfCalories * scale),
		Protein:      round1(food.NfProtein * scale),
		Fat:          round1(food.NfTotalFat * scale),
		Carbs:        round1(food.NfTotalCarbohydrate * scale),
		Fiber:        optional1(food.NfDietaryFiber * scale),
		Sugar:        optional1(food.NfSugars * scale),
		Sodium:       optional(math.Round(food.NfSodium * scale)),
		Potassium:    optional(math.Round(food.NfPotassium * scale)),
		SaturatedFat: optional1(food.NfSaturatedFat * scale),
	}
	sanitized := common.ValidateEnergy(per100g)

	perServing := common.Nutrients{
		Calories:     math.Round(food.NfCalories),
		Protein:      round1(food.NfProtein),
		Fat:          round1(food.NfTotalFat),
		Carbs:        round1(food.NfTotalCarbohydrate),
		Fiber:        optional1(food.NfDietaryFiber),
		Sugar:        optional1(food.NfSugars),
		Sodium:       optional(math.Round(food.NfSodium)),
		Potassium:    optional(math.Round(food.NfPotassium)),
		SaturatedFat: optional1(food.NfSaturatedFat),
	}

	name := food.FoodName
	if name == "" {
		name = query
	}
	aliases := []string{}
	if food.FoodName != "" {
		aliases = append(aliases, food.FoodName)
	}
	if food.BrandName != "" {
		aliases = append(aliases, food.BrandName)
	}

	ingredients := ParseIngredientStatement(food.NfIngredientStmt)
	if len(ingredients) == 0 {
		ingredients = []common.Ingredient{{Name: name}}
	}

	return &common.EnrichedFood{
		Name:        name,
		Aliases:     aliases,
		Locale:      "auto",
		Ingredients: ingredients,
		Per100g:     sanitized,
		PerServing: &common.ServingNutrients{
			Nutrients:    perServing,
			ServingGrams: servingGrams,
		},
		Source:     common.SourceNutritionix,
		Confidence: nutritionixConfidence,
	}
}
