package provider

import (
	"regexp"
	"strings"

	"nutrition-enricher/internal/pkg/common"
)

// maxIngredients 成分清單上限
const maxIngredients = 60

var parentheticalPattern = regexp.MustCompile(`\(.*?\)`)

// ParseIngredientStatement 解析包裝標示上的成分文字
// 先去除括號內的附註（附註常含逗號），再以逗號、分號切分，上限 60 項
func ParseIngredientStatement(raw string) []common.Ingredient {
	if raw == "" {
		return nil
	}

	cleaned := parentheticalPattern.ReplaceAllString(raw, "")
	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || r == ';'
	})

	ingredients := make([]common.Ingredient, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		ingredients = append(ingredients, common.Ingredient{Name: name})
		if len(ingredients) >= maxIngredients {
			break
		}
	}
	return ingredients
}
