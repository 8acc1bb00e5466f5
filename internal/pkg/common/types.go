package common

import "math"

// Source 營養資料來源
type Source string

const (
	SourceFDC         Source = "FDC"         // USDA FoodData Central
	SourceEdamam      Source = "EDAMAM"      // Edamam 食品資料庫
	SourceNutritionix Source = "NUTRITIONIX" // Nutritionix 品牌商品資料庫
	SourceEstimated   Source = "ESTIMATED"   // 生成式估算
)

// Nutrients 每 100g 營養值
type Nutrients struct {
	Calories     float64  `json:"calories"`
	Protein      float64  `json:"protein"`
	Fat          float64  `json:"fat"`
	Carbs        float64  `json:"carbs"`
	Fiber        *float64 `json:"fiber,omitempty"`
	Sugar        *float64 `json:"sugar,omitempty"`
	Sodium       *float64 `json:"sodium,omitempty"`
	Potassium    *float64 `json:"potassium,omitempty"`
	Calcium      *float64 `json:"calcium,omitempty"`
	Iron         *float64 `json:"iron,omitempty"`
	SaturatedFat *float64 `json:"saturated_fat,omitempty"`
}

// ServingNutrients 每份營養值，附每份克數
type ServingNutrients struct {
	Nutrients
	ServingGrams float64 `json:"serving_grams,omitempty"`
}

// Ingredient 成分項目
type Ingredient struct {
	Name   string   `json:"name"`
	Grams  *float64 `json:"grams,omitempty"`
	Amount string   `json:"amount,omitempty"`
}

// EnrichedFood 標準化的營養查詢結果
// IngredientSource 僅在成分由其他來源回填時設置
type EnrichedFood struct {
	Name             string            `json:"name"`
	Aliases          []string          `json:"aliases"`
	Locale           string            `json:"locale"`
	Ingredients      []Ingredient      `json:"ingredients"`
	Per100g          Nutrients         `json:"per100g"`
	PerServing       *ServingNutrients `json:"perServing,omitempty"`
	Source           Source            `json:"source"`
	SourceID         string            `json:"source_id,omitempty"`
	Confidence       float64           `json:"confidence"`
	IngredientSource Source            `json:"ingredient_source,omitempty"`
	LowValue         bool              `json:"low_value"`
}

// energyTolerance 熱量檢核容許偏差（±8%）
const energyTolerance = 0.08

// ValidateEnergy 熱量合理性檢核
// 標示熱量與巨量營養素推算值偏差超過 8% 時，以推算值取代。
// 上游 OCR 或單位錯誤很常見，此處靜默修復而非拒絕。
func ValidateEnergy(n Nutrients) Nutrients {
	calculated := n.Protein*4 + n.Carbs*4 + n.Fat*9
	if calculated <= 0 {
		return n
	}
	if math.Abs(n.Calories-calculated)/calculated > energyTolerance {
		n.Calories = math.Round(calculated)
	}
	return n
}

// RecomputeLowValue 重新評估 low_value 旗標
// 成分清單 ≤1 且來源非生成式估算時視為語義不完整。
func RecomputeLowValue(f *EnrichedFood) {
	f.LowValue = len(f.Ingredients) <= 1 && f.Source != SourceEstimated
}
