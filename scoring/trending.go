package scoring

import (
	"context"
	"time"

	"github.com/rushteam/shoprec/core"
)

// TrendingStore 是热门打分的数据接口：近期全量交互 + 全局热度计数。
type TrendingStore interface {
	// RecentInteractions 获取 since 之后的全量交互（跨用户，时间升序）
	RecentInteractions(ctx context.Context, since time.Time) ([]core.Interaction, error)

	// PopularityStats 获取商品的全局热度计数
	PopularityStats(ctx context.Context) (map[string]core.PopularityStats, error)

	// AllProducts 获取全部商品 ID 列表
	AllProducts(ctx context.Context) ([]string, error)
}

// TrendingScorer 是热门打分策略（TRENDING）。
//
// 核心思想："最近被高权重行为触达越多的商品越热"
//
// 打分公式：
//	score(p) = Σ typeWeight(type) × decay(now - timestamp)
//	衰减为指数半衰期，单调不增；购买 > 评分 > 浏览
//
// 工程特征：
//   - 与请求用户无关，同一时刻对所有用户产出一致
//   - 不排除已购商品（复购在电商里是合理推荐）
//   - 冷启动兜底：新用户 / 数据不足时的统一降级目标
//
// 兜底链（保证目录非空时结果非空）：
//  1. 近期交互的衰减加权
//  2. 无近期交互 → 全局热度计数
//  3. 仍为空 → 裸目录（score 0，按 productId 升序）
type TrendingScorer struct {
	Store TrendingStore

	// Weights 行为类型权重；零值时使用默认权重
	Weights TypeWeights

	// HalfLife 衰减半衰期，默认 12h
	HalfLife time.Duration

	// Window 参与计算的时间窗口，默认 7 天
	Window time.Duration

	// now 可注入的时钟，便于测试；nil 时使用 time.Now
	now func() time.Time
}

func (s *TrendingScorer) Name() string { return "scoring.trending" }

func (s *TrendingScorer) Score(ctx context.Context, _ string, limit int) ([]core.ScoredProduct, error) {
	if s.Store == nil {
		return nil, core.ErrInsufficientData
	}

	now := time.Now()
	if s.now != nil {
		now = s.now()
	}

	halfLife := s.HalfLife
	if halfLife <= 0 {
		halfLife = 12 * time.Hour
	}
	window := s.Window
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	weights := s.Weights
	if weights == (TypeWeights{}) {
		weights = DefaultTypeWeights()
	}

	interactions, err := s.Store.RecentInteractions(ctx, now.Add(-window))
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(interactions))
	for _, inter := range interactions {
		scores[inter.ProductID] += interactionWeight(inter, weights, halfLife, now)
	}

	// 无近期交互：退到全局热度计数
	if len(scores) == 0 {
		stats, err := s.Store.PopularityStats(ctx)
		if err != nil {
			return nil, err
		}
		for id, st := range stats {
			scores[id] = weights.View*float64(st.Views) + weights.Purchase*float64(st.Purchases) + weights.Rating*st.AvgRating
		}
	}

	// 仍为空：裸目录兜底，score 0 由 productId 升序给出稳定顺序
	if len(scores) == 0 {
		products, err := s.Store.AllProducts(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range products {
			scores[id] = 0
		}
	}

	return rankScores(scores, limit), nil
}

var _ Scorer = (*TrendingScorer)(nil)
