package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
)

// HybridScorer 是混合打分策略（HYBRID）：并发执行协同与内容两路打分，
// 各自归一化到 [0,1] 后按固定权重加权合并。
//
// 合并规则：
//	score(p) = CollaborativeWeight × normColl(p) + ContentWeight × normContent(p)
//	归一化 = 各自结果集内的 min-max；缺席的一路按 0 计
//
// 任一子策略数据不足时在本层先降级到 Fallback（TRENDING），
// 合并照常进行——两路的产物是什么就用什么。
// 两路计算相互独立，无共享可变状态，errgroup join 后才合并。
type HybridScorer struct {
	Collaborative Scorer
	Content       Scorer

	// Fallback 子策略数据不足时的兜底（通常是 TrendingScorer）
	Fallback Scorer

	// CollaborativeWeight / ContentWeight 合并权重，默认 0.6 / 0.4
	CollaborativeWeight float64
	ContentWeight       float64

	// CandidateLimit 每路子策略的候选数量，默认 100
	CandidateLimit int
}

func (s *HybridScorer) Name() string { return "scoring.hybrid" }

func (s *HybridScorer) Score(ctx context.Context, userID string, limit int) ([]core.ScoredProduct, error) {
	wColl := s.CollaborativeWeight
	wCont := s.ContentWeight
	if wColl <= 0 && wCont <= 0 {
		wColl, wCont = 0.6, 0.4
	}
	candidates := s.CandidateLimit
	if candidates <= 0 {
		candidates = 100
	}

	var (
		collScores    []core.ScoredProduct
		contentScores []core.ScoredProduct
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := s.scoreWithFallback(egCtx, s.Collaborative, userID, candidates)
		if err != nil {
			return err
		}
		collScores = out
		return nil
	})
	eg.Go(func() error {
		out, err := s.scoreWithFallback(egCtx, s.Content, userID, candidates)
		if err != nil {
			return err
		}
		contentScores = out
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 合并：各自 min-max 归一化后加权求和，缺席一路按 0 计
	combined := make(map[string]float64, len(collScores)+len(contentScores))
	for id, n := range normalize(collScores) {
		combined[id] += wColl * n
	}
	for id, n := range normalize(contentScores) {
		combined[id] += wCont * n
	}

	if len(combined) == 0 {
		return nil, core.ErrInsufficientData
	}
	return rankScores(combined, limit), nil
}

// scoreWithFallback 执行子策略；数据不足时降级到 Fallback。
// 数据源错误原样上抛，不做掩盖。
func (s *HybridScorer) scoreWithFallback(ctx context.Context, sub Scorer, userID string, limit int) ([]core.ScoredProduct, error) {
	if sub == nil {
		return nil, core.ErrInsufficientData
	}
	out, err := sub.Score(ctx, userID, limit)
	if err != nil {
		if core.IsInsufficientData(err) && s.Fallback != nil {
			return s.Fallback.Score(ctx, userID, limit)
		}
		return nil, err
	}
	return out, nil
}

// normalize 将结果集内的分数 min-max 归一化到 [0,1]。
// 所有分数相同时（含单元素）全部记 1.0，避免除零。
func normalize(items []core.ScoredProduct) map[string]float64 {
	if len(items) == 0 {
		return nil
	}
	min, max := items[0].Score, items[0].Score
	for _, it := range items[1:] {
		if it.Score < min {
			min = it.Score
		}
		if it.Score > max {
			max = it.Score
		}
	}

	out := make(map[string]float64, len(items))
	if max == min {
		for _, it := range items {
			out[it.ProductID] = 1.0
		}
		return out
	}
	for _, it := range items {
		out[it.ProductID] = (it.Score - min) / (max - min)
	}
	return out
}

var _ Scorer = (*HybridScorer)(nil)
