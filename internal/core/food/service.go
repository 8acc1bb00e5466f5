package food

import (
	"context"
	"sync"
	"time"

	"nutrition-enricher/internal/core/food/cache"
	"nutrition-enricher/internal/core/food/provider"
	"nutrition-enricher/internal/infrastructure/config"
	"nutrition-enricher/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 營養解析服務
// 串接正規化、快取、來源級聯、評分、成分回填與快取寫入
type Service struct {
	cfg         *config.Config
	store       cache.Store
	fdc         provider.Provider
	edamam      provider.Provider
	nutritionix provider.Provider
	estimator   provider.Provider
}

// NewService 創建營養解析服務
// 來源以介面注入，憑證缺失的來源由其本身回報停用
func NewService(cfg *config.Config, store cache.Store, fdc, edamam, nutritionix, estimator provider.Provider) *Service {
	return &Service{
		cfg:         cfg,
		store:       store,
		fdc:         fdc,
		edamam:      edamam,
		nutritionix: nutritionix,
		estimator:   estimator,
	}
}

// Enrich 解析查詢為標準化營養結果
// 快取命中直接回傳存儲的 payload，不重新驗證、不重新評分
func (s *Service) Enrich(ctx context.Context, query, locale string) (*common.EnrichedFood, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, common.ErrQueryRequired
	}
	if locale == "" {
		locale = DefaultLocale
	}
	hash := QueryHash(normalized, locale)

	// 快取檢查
	if s.cacheEnabled() {
		if entry, ok := s.store.Get(ctx, hash); ok && entry.Payload != nil {
			common.LogInfo("解析快取命中",
				zap.String("query", normalized),
				zap.String("source", string(entry.Source)),
				zap.Float64("confidence", entry.Confidence),
				zap.Int("ingredient_count", len(entry.Payload.Ingredients)),
			)
			return entry.Payload, nil
		}
	}

	// 來源級聯
	winner, consulted := s.fetch(ctx, query, normalized)

	// 所有結構化來源落空時退回生成式估算
	if winner == nil {
		consulted[common.SourceEstimated] = true
		winner = s.estimator.Resolve(ctx, query)
	}
	if winner == nil {
		common.LogInfo("解析落空", zap.String("query", normalized))
		return nil, common.ErrNoNutritionData
	}

	winner.Locale = locale

	// 成分回填與 low_value 重評
	s.backfill(ctx, query, winner, consulted)
	common.RecomputeLowValue(winner)

	common.LogInfo("解析完成",
		zap.String("query", normalized),
		zap.String("source", string(winner.Source)),
		zap.Float64("confidence", winner.Confidence),
		zap.Int("ingredient_count", len(winner.Ingredients)),
		zap.Bool("low_value", winner.LowValue),
	)

	// 快取寫入
	s.writeCache(ctx, hash, normalized, winner)

	return winner, nil
}

// fetch 依查詢形態選擇來源級聯分支
func (s *Service) fetch(ctx context.Context, query, normalized string) (*common.EnrichedFood, map[common.Source]bool) {
	if isComplexQuery(normalized) {
		return s.fetchComplex(ctx, query)
	}
	return s.fetchSimple(ctx, query)
}

// fetchComplex 多詞（或非 ASCII）查詢：循序條件式
// 品牌來源優先；其結果缺失、low_value 或成分 ≤1 時才追加
// 成分標示來源；最高分達門檻即勝出，否則補上組成資料庫候選
func (s *Service) fetchComplex(ctx context.Context, query string) (*common.EnrichedFood, map[common.Source]bool) {
	consulted := map[common.Source]bool{}
	var candidates []candidate

	consulted[common.SourceNutritionix] = true
	nix := s.nutritionix.Resolve(ctx, query)
	if nix != nil {
		candidates = append(candidates, candidate{result: nix, score: ScoreCandidate(nix)})
	}

	if nix == nil || nix.LowValue || len(nix.Ingredients) <= 1 {
		consulted[common.SourceEdamam] = true
		if ed := s.edamam.Resolve(ctx, query); ed != nil {
			candidates = append(candidates, candidate{result: ed, score: ScoreCandidate(ed)})
		}
	}

	if winner, best := pickWinner(candidates); winner != nil && best >= winScoreFloor {
		return winner, consulted
	}

	// 門檻未達，組成資料庫作為最後一個候選
	consulted[common.SourceFDC] = true
	if f := s.fdc.Resolve(ctx, query); f != nil {
		candidates = append(candidates, candidate{result: f, score: ScoreCandidate(f)})
	}

	winner, _ := pickWinner(candidates)
	return winner, consulted
}

// fetchSimple 單詞查詢：三來源並行扇出，等待全部完成
// 容忍個別 nil；最高分直接勝出，無門檻
func (s *Service) fetchSimple(ctx context.Context, query string) (*common.EnrichedFood, map[common.Source]bool) {
	providers := []provider.Provider{s.fdc, s.edamam, s.nutritionix}
	consulted := map[common.Source]bool{}
	results := make([]*common.EnrichedFood, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		consulted[p.Tag()] = true
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			results[i] = p.Resolve(ctx, query)
		}(i, p)
	}
	wg.Wait()

	var candidates []candidate
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, candidate{result: r, score: ScoreCandidate(r)})
		}
	}

	winner, _ := pickWinner(candidates)
	return winner, consulted
}

// backfill 成分回填
// 勝出結果成分 ≤1 且非生成式估算時，向未諮詢過的來源（加上
// 估算來源）借成分；取成分最多者，只替換成分欄位並記錄捐贈
// 來源，營養值與來源歸屬不變。
func (s *Service) backfill(ctx context.Context, query string, winner *common.EnrichedFood, consulted map[common.Source]bool) {
	if len(winner.Ingredients) > 1 || winner.Source == common.SourceEstimated {
		return
	}

	donors := make([]provider.Provider, 0, 4)
	for _, p := range []provider.Provider{s.fdc, s.edamam, s.nutritionix} {
		if !consulted[p.Tag()] {
			donors = append(donors, p)
		}
	}
	// 估算來源永遠是最後的捐贈者
	donors = append(donors, s.estimator)

	var bestIngredients []common.Ingredient
	var bestSource common.Source
	for _, d := range donors {
		r := d.Resolve(ctx, query)
		if r == nil || len(r.Ingredients) <= 1 {
			continue
		}
		if len(r.Ingredients) > len(bestIngredients) {
			bestIngredients = r.Ingredients
			bestSource = d.Tag()
		}
	}

	if bestIngredients == nil {
		return
	}

	winner.Ingredients = bestIngredients
	winner.IngredientSource = bestSource
	common.LogInfo("成分回填成功",
		zap.String("winner_source", string(winner.Source)),
		zap.String("ingredient_source", string(bestSource)),
		zap.Int("ingredient_count", len(bestIngredients)),
	)
}

// writeCache 以品質決定 TTL 後 upsert 快取條目
func (s *Service) writeCache(ctx context.Context, hash, normalized string, result *common.EnrichedFood) {
	if !s.cacheEnabled() {
		return
	}

	ttl := s.cfg.Cache.FullValueTTL
	if result.LowValue {
		ttl = s.cfg.Cache.LowValueTTL
	}

	entry := &cache.Entry{
		QueryHash:       hash,
		NormalizedQuery: normalized,
		Payload:         result,
		Source:          result.Source,
		Confidence:      result.Confidence,
		LowValue:        result.LowValue,
		ExpiresAt:       time.Now().Add(ttl),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		// 快取寫入失敗不影響本次響應
		common.LogWarn("快取寫入失敗", zap.Error(err), zap.String("鍵", hash))
	}
}

func (s *Service) cacheEnabled() bool {
	return s.store != nil && s.cfg.Cache.Enabled
}
