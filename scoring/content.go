package scoring

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/shoprec/core"
)

// ContentStore 是内容推荐的数据接口：用户交互历史 + 商品属性目录。
type ContentStore interface {
	// UserInteractions 获取单个用户的交互历史（时间升序，最新在后）
	UserInteractions(ctx context.Context, userID string) ([]core.Interaction, error)

	// CatalogAttributes 获取全量商品属性（productId -> attributes）
	CatalogAttributes(ctx context.Context) (map[string]core.ProductAttributes, error)
}

// ContentScorer 是基于内容的打分策略（CONTENT_BASED）。
//
// 核心思想："用户喜欢具有某些特征的商品，推荐具有相似特征的其他商品"
//
// 算法流程：
//  1. 历史交互 → 用户偏好向量（类目/品牌/标签/价格档，按类型权重和时间衰减加权）
//  2. 候选商品属性 → 商品特征向量
//  3. 相似度（cosine / jaccard）打分
//  4. 排除已购买的商品
//
// 数据不足（无历史或偏好向量为空）返回 ErrInsufficientData，
// 由引擎捕获后降级到 TRENDING。
type ContentScorer struct {
	Store ContentStore

	// Metric 相似度度量方式：cosine / jaccard，默认 cosine
	Metric string

	// Weights 行为类型权重；零值时使用默认权重
	Weights TypeWeights

	// HalfLife 偏好衰减半衰期，默认 72h（长期兴趣比热门衰减慢）
	HalfLife time.Duration

	// now 可注入的时钟，便于测试；nil 时使用 time.Now
	now func() time.Time
}

func (s *ContentScorer) Name() string { return "scoring.content" }

func (s *ContentScorer) Score(ctx context.Context, userID string, limit int) ([]core.ScoredProduct, error) {
	if s.Store == nil || userID == "" {
		return nil, core.ErrInsufficientData
	}

	interactions, err := s.Store.UserInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(interactions) == 0 {
		return nil, core.ErrInsufficientData
	}

	catalog, err := s.Store.CatalogAttributes(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	halfLife := s.HalfLife
	if halfLife <= 0 {
		halfLife = 72 * time.Hour
	}
	weights := s.Weights
	if weights == (TypeWeights{}) {
		weights = DefaultTypeWeights()
	}

	// 1. 构建用户偏好向量：交互过的商品特征按交互权重累加
	profile := make(map[string]float64)
	for _, inter := range interactions {
		attrs, ok := catalog[inter.ProductID]
		if !ok {
			continue
		}
		w := interactionWeight(inter, weights, halfLife, now)
		for feature, fw := range attrs.FeatureVector() {
			profile[feature] += w * fw
		}
	}
	if len(profile) == 0 {
		return nil, core.ErrInsufficientData
	}

	purchased := purchasedSet(interactions)

	metric := s.Metric
	if metric == "" {
		metric = "cosine"
	}

	// 2. 候选打分：排除已购，按偏好向量与商品特征的相似度
	scores := make(map[string]float64)
	for productID, attrs := range catalog {
		if _, ok := purchased[productID]; ok {
			continue
		}

		var score float64
		switch metric {
		case "jaccard":
			score = jaccardSimilarity(profile, attrs.FeatureVector())
		case "cosine":
			fallthrough
		default:
			score = cosineSimilarity(profile, attrs.FeatureVector())
		}

		if score > 0 {
			scores[productID] = score
		}
	}

	return rankScores(scores, limit), nil
}

var _ Scorer = (*ContentScorer)(nil)

// cosineSimilarity 计算两个稀疏特征向量的余弦相似度
func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity 计算两个稀疏特征向量的加权 Jaccard 相似度
func jaccardSimilarity(a, b map[string]float64) float64 {
	var intersection, union float64
	for k, va := range a {
		if vb, ok := b[k]; ok {
			intersection += math.Min(va, vb)
			union += math.Max(va, vb)
		} else {
			union += va
		}
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			union += vb
		}
	}

	if union == 0 {
		return 0
	}
	return intersection / union
}
