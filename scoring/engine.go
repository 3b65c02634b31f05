package scoring

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// DataSource 是打分引擎消费的完整数据契约：
// 各策略声明的窄接口（TrendingStore / ContentStore / CFStore）的并集。
// source.StoreSource 实现此接口。
type DataSource interface {
	TrendingStore
	ContentStore
	CFStore
}

// Engine 是打分引擎：按封闭枚举分发到具体策略，并承担统一兜底。
//
// 兜底不变式：
//   - ErrInsufficientData 永远不会离开引擎——捕获后降级到 TRENDING
//   - 只要商品目录非空，Score 永远返回非空列表
//   - 数据源不可用（UNAVAILABLE）原样上抛，不返回猜测的结果
type Engine struct {
	Trending      *TrendingScorer
	Content       *ContentScorer
	Collaborative *CollaborativeScorer
	Hybrid        *HybridScorer
}

// Option 配置 Engine 的可调参数。
type Option func(*Engine)

// WithHybridWeights 设置混合策略的合并权重。
func WithHybridWeights(collaborative, content float64) Option {
	return func(e *Engine) {
		e.Hybrid.CollaborativeWeight = collaborative
		e.Hybrid.ContentWeight = content
	}
}

// WithTypeWeights 设置所有策略共用的行为类型权重。
func WithTypeWeights(w TypeWeights) Option {
	return func(e *Engine) {
		e.Trending.Weights = w
		e.Content.Weights = w
		e.Collaborative.Weights = w
	}
}

// WithContentMetric 设置内容策略的相似度度量（cosine / jaccard）。
func WithContentMetric(metric string) Option {
	return func(e *Engine) {
		e.Content.Metric = metric
	}
}

// WithMinNeighbors 设置协同策略的最小可比用户数。
func WithMinNeighbors(n int) Option {
	return func(e *Engine) {
		e.Collaborative.MinNeighbors = n
	}
}

// NewEngine 基于单一数据源构建四个策略齐备的引擎。
func NewEngine(src DataSource, opts ...Option) *Engine {
	trending := &TrendingScorer{Store: src}
	content := &ContentScorer{Store: src}
	collaborative := &CollaborativeScorer{Store: src}
	e := &Engine{
		Trending:      trending,
		Content:       content,
		Collaborative: collaborative,
		Hybrid: &HybridScorer{
			Collaborative: collaborative,
			Content:       content,
			Fallback:      trending,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score 按算法枚举分发打分。
// 数据不足一律降级到 TRENDING；未知算法返回 ErrInvalidAlgorithm。
func (e *Engine) Score(ctx context.Context, userID string, algorithm core.Algorithm, limit int) ([]core.ScoredProduct, error) {
	var scorer Scorer
	switch algorithm {
	case core.AlgorithmTrending:
		scorer = e.Trending
	case core.AlgorithmContentBased:
		scorer = e.Content
	case core.AlgorithmCollaborative:
		scorer = e.Collaborative
	case core.AlgorithmHybrid:
		scorer = e.Hybrid
	default:
		return nil, core.ErrInvalidAlgorithm
	}

	out, err := scorer.Score(ctx, userID, limit)
	if err != nil {
		if core.IsInsufficientData(err) && algorithm != core.AlgorithmTrending {
			return e.Trending.Score(ctx, userID, limit)
		}
		return nil, err
	}
	// 个性化策略可能产出空集（例如候选全被排除），同样走热门兜底
	if len(out) == 0 && algorithm != core.AlgorithmTrending {
		return e.Trending.Score(ctx, userID, limit)
	}
	return out, nil
}
