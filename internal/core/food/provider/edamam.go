package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const edamamBaseURL = "https://api.edamam.com"

// edamamConfidence 此來源的固定信心值
const edamamConfidence = 0.78

// Edamam 食品資料庫來源
// 除結構化營養值外，也解析自由文字的成分標示欄位
type Edamam struct {
	cfg    config.EdamamConfig
	client *resty.Client
}

// NewEdamam 創建 Edamam 來源
func NewEdamam(cfg config.EdamamConfig) *Edamam {
	client := resty.New().SetBaseURL(edamamBaseURL)
	return &Edamam{cfg: cfg, client: client}
}

// Tag 回報來源標識
func (p *Edamam) Tag() common.Source { return common.SourceEdamam }

// Enabled 回報來源是否已配置憑證
func (p *Edamam) Enabled() bool { return p.cfg.Enabled() }

// edamamFood Edamam parser 響應中的食品項目
type edamamFood struct {
	FoodID            string             `json:"foodId"`
	Label             string             `json:"label"`
	Brand             string             `json:"brand"`
	Nutrients         map[string]float64 `json:"nutrients"`
	FoodContentsLabel string             `json:"foodContentsLabel"`
}

// edamamParserResponse Edamam parser 響應
type edamamParserResponse struct {
	Parsed []struct {
		Food edamamFood `json:"food"`
	} `json:"parsed"`
	Hints []struct {
		Food edamamFood `json:"food"`
	} `json:"hints"`
}

// Resolve 解析查詢
func (p *Edamam) Resolve(ctx context.Context, query string) *common.EnrichedFood {
	if !p.Enabled() {
		return nil
	}

	start := time.Now()
	result, err := p.parse(ctx, query)
	common.LogProviderCall(common.SourceEdamam, query, time.Since(start), err)
	if err != nil {
		return nil
	}
	return result
}

func (p *Edamam) parse(ctx context.Context, query string) (*common.EnrichedFood, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var data edamamParserResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ingr":    query,
			"app_id":  p.cfg.AppID,
			"app_key": p.cfg.AppKey,
		}).
		SetResult(&data).
		Get("/api/food-database/v2/parser")
	if err != nil {
		return nil, fmt.Errorf("edamam parser request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("edamam parser status %d", resp.StatusCode())
	}

	// parsed 優先，退而求其次取第一個 hint
	var food *edamamFood
	if len(data.Parsed) > 0 {
		food = &data.Parsed[0].Food
	} else if len(data.Hints) > 0 {
		food = &data.Hints[0].Food
	}
	if food == nil {
		return nil, fmt.Errorf("no edamam results")
	}

	nut := food.Nutrients
	per100g := common.Nutrients{
		Calories:     math.Round(nut["ENERC_KCAL"]),
		Protein:      round1(nut["PROCNT"]),
		Fat:          round1(nut["FAT"]),
		Carbs:        round1(nut["CHOCDF"]),
		Fiber:        optional1(nut["FIBTG"]),
		Sugar:        optional1(nut["SUGAR"]),
		Sodium:       optional(math.Round(nut["NA"])),
		Potassium:    optional(math.Round(nut["K"])),
		Calcium:      optional(math.Round(nut["CA"])),
		Iron:         optional1(nut["FE"]),
		SaturatedFat: optional1(nut["FASAT"]),
	}

	name := food.Label
	if name == "" {
		name = query
	}
	aliases := []string{}
	if food.Label != "" {
		aliases = append(aliases, food.Label)
	}
	if food.Brand != "" {
		aliases = append(aliases, food.Brand)
	}

	// 成分標示為包裝上的自由文字，解析失敗時退回自身名稱
	ingredients := ParseIngredientStatement(food.FoodContentsLabel)
	if len(ingredients) == 0 {
		ingredients = []common.Ingredient{{Name: name}}
	}

	common.LogDebug("Edamam 命中",
		zap.String("food_id", food.FoodID),
		zap.Int("ingredient_count", len(ingredients)),
	)

	return &common.EnrichedFood{
		Name:        name,
		Aliases:     aliases,
		Locale:      "auto",
		Ingredients: ingredients,
		Per100g:     common.ValidateEnergy(per100g),
		Source:      common.SourceEdamam,
		SourceID:    food.FoodID,
		Confidence:  edamamConfidence,
	}, nil
}
