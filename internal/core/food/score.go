package food

import (
	"nutrition-enricher/internal/pkg/common"
)

// winScoreFloor 條件式分支的勝出門檻
// 僅用於多詞查詢分支；單詞查詢的扇出分支取最高分即勝出
const winScoreFloor = 0.6

// candidate 評分期間的暫時結構，不持久化
type candidate struct {
	result *common.EnrichedFood
	score  float64
}

// ScoreCandidate 候選評分
// 以來源信心值為底，結構完整性加減分：成分 ≥3 項 +0.25、恰好
// 2 項 +0.10、否則 -0.30；品牌來源且非 low_value 再 +0.05。
// 原始信心值無法反映成分清單是否存在，結構完整的答案優先。
func ScoreCandidate(f *common.EnrichedFood) float64 {
	score := f.Confidence

	switch n := len(f.Ingredients); {
	case n >= 3:
		score += 0.25
	case n == 2:
		score += 0.10
	default:
		score -= 0.30
	}

	if f.Source == common.SourceNutritionix && !f.LowValue {
		score += 0.05
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// pickWinner 取最高分候選，回傳候選與其分數
func pickWinner(candidates []candidate) (*common.EnrichedFood, float64) {
	var winner *common.EnrichedFood
	best := 0.0
	for _, c := range candidates {
		if winner == nil || c.score > best {
			winner = c.result
			best = c.score
		}
	}
	return winner, best
}
