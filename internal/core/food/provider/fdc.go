package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const fdcBaseURL = "https://api.nal.usda.gov"

// fdcConfidence 此來源的固定信心值
// 政府實驗室數據，但缺乏結構化成分標示
const fdcConfidence = 0.85

// FDC USDA FoodData Central 來源
type FDC struct {
	cfg    config.FDCConfig
	client *resty.Client
}

// NewFDC 創建 FDC 來源
func NewFDC(cfg config.FDCConfig) *FDC {
	client := resty.New().SetBaseURL(fdcBaseURL)
	return &FDC{cfg: cfg, client: client}
}

// Tag 回報來源標識
func (p *FDC) Tag() common.Source { return common.SourceFDC }

// Enabled 回報來源是否已配置憑證
func (p *FDC) Enabled() bool { return p.cfg.Enabled() }

// fdcSearchResponse FDC 搜尋響應（僅保留使用到的欄位）
type fdcSearchResponse struct {
	Foods []struct {
		FdcID         int64  `json:"fdcId"`
		Description   string `json:"description"`
		BrandName     string `json:"brandName"`
		FoodNutrients []struct {
			NutrientID int64   `json:"nutrientId"`
			Value      float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Resolve 解析查詢
func (p *FDC) Resolve(ctx context.Context, query string) *common.EnrichedFood {
	if !p.Enabled() {
		return nil
	}

	start := time.Now()
	result, err := p.search(ctx, query)
	common.LogProviderCall(common.SourceFDC, query, time.Since(start), err)
	if err != nil {
		return nil
	}
	return result
}

func (p *FDC) search(ctx context.Context, query string) (*common.EnrichedFood, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var data fdcSearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    query,
			"api_key":  p.cfg.APIKey,
			"pageSize": "5",
		}).
		SetResult(&data).
		Get("/fdc/v1/foods/search")
	if err != nil {
		return nil, fmt.Errorf("fdc search request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fdc search status %d", resp.StatusCode())
	}
	if len(data.Foods) == 0 {
		return nil, fmt.Errorf("no fdc results")
	}

	// 取第一筆結果
	food := data.Foods[0]

	// 將 USDA 營養素代碼映射到標準欄位
	raw := map[int64]float64{}
	for _, n := range food.FoodNutrients {
		raw[n.NutrientID] = n.Value
	}

	per100g := common.Nutrients{
		Calories:     raw[208], // ENERC_KCAL
		Protein:      raw[203], // PROCNT
		Fat:          raw[204], // FAT
		Carbs:        raw[205], // CHOCDF
		Fiber:        optional(raw[291]),
		Sugar:        optional(raw[269]),
		Sodium:       optional(raw[307]),
		Potassium:    optional(raw[306]),
		Calcium:      optional(raw[301]),
		Iron:         optional(raw[303]),
		SaturatedFat: optional(raw[606]),
	}

	name := food.Description
	if name == "" {
		name = query
	}
	aliases := []string{}
	if food.Description != "" {
		aliases = append(aliases, food.Description)
	}
	if food.BrandName != "" {
		aliases = append(aliases, food.BrandName)
	}

	common.LogDebug("FDC 命中",
		zap.Int64("fdc_id", food.FdcID),
		zap.String("description", food.Description),
	)

	return &common.EnrichedFood{
		Name:    name,
		Aliases: aliases,
		Locale:  "auto",
		// 此來源沒有結構化成分標示，成分即其自身描述
		Ingredients: []common.Ingredient{{Name: name}},
		Per100g:     common.ValidateEnergy(per100g),
		Source:      common.SourceFDC,
		SourceID:    fmt.Sprintf("%d", food.FdcID),
		Confidence:  fdcConfidence,
	}, nil
}
