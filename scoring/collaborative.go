package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rushteam/shoprec/core"
)

// CFStore 是协同过滤的数据接口：用户/商品两个方向的交互查询 + 热度计数。
type CFStore interface {
	// UserInteractions 获取单个用户的交互历史（时间升序，最新在后）
	UserInteractions(ctx context.Context, userID string) ([]core.Interaction, error)

	// ProductInteractions 获取单个商品的全部交互（倒排方向，用于共现）
	ProductInteractions(ctx context.Context, productID string) ([]core.Interaction, error)

	// PopularityStats 获取商品的全局热度计数（用于反热门归一）
	PopularityStats(ctx context.Context) (map[string]core.PopularityStats, error)
}

// CollaborativeScorer 是协同过滤打分策略（COLLABORATIVE）。
//
// 核心思想："和我买过同样东西的人，他们还买了什么"
//
// 算法流程：
//  1. 目标用户交互 → 商品权重集合
//  2. 沿商品倒排找共现用户，重合强度作为邻居相似度
//  3. 邻居的其他商品按 相似度 × 交互权重 累加
//  4. 除以 log(e + 热度) 反热门归一，避免永远推爆款
//  5. 排除目标用户已购买的商品
//
// 可比用户不足 MinNeighbors 时返回 ErrInsufficientData，
// 由引擎捕获后降级到 TRENDING。
type CollaborativeScorer struct {
	Store CFStore

	// MinNeighbors 至少需要多少个共现用户才认为数据可用，默认 2
	MinNeighbors int

	// TopKNeighbors 参与打分的 TopK 个邻居，默认 50
	TopKNeighbors int

	// Weights 行为类型权重；零值时使用默认权重
	Weights TypeWeights

	// HalfLife 交互衰减半衰期，默认 72h
	HalfLife time.Duration

	// now 可注入的时钟，便于测试；nil 时使用 time.Now
	now func() time.Time
}

func (s *CollaborativeScorer) Name() string { return "scoring.collaborative" }

func (s *CollaborativeScorer) Score(ctx context.Context, userID string, limit int) ([]core.ScoredProduct, error) {
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
	minNeighbors := s.MinNeighbors
	if minNeighbors <= 0 {
		minNeighbors = 2
	}
	topK := s.TopKNeighbors
	if topK <= 0 {
		topK = 50
	}

	// 1. 目标用户的商品权重集合
	targetItems := make(map[string]float64, len(interactions))
	for _, inter := range interactions {
		targetItems[inter.ProductID] += interactionWeight(inter, weights, halfLife, now)
	}

	// 2. 沿商品倒排累计共现强度：overlap[u] = Σ targetWeight(p) × typeWeight(u 对 p 的行为)
	overlap := make(map[string]float64)
	for productID, targetWeight := range targetItems {
		productInters, err := s.Store.ProductInteractions(ctx, productID)
		if err != nil {
			return nil, err
		}
		for _, inter := range productInters {
			if inter.UserID == userID {
				continue // 跳过自己
			}
			overlap[inter.UserID] += targetWeight * weights.Of(inter.Type)
		}
	}

	if len(overlap) < minNeighbors {
		return nil, core.ErrInsufficientData
	}

	// 3. 取 TopK 邻居（同分按 userId 升序，保证确定性）
	type neighbor struct {
		userID     string
		similarity float64
	}
	neighbors := make([]neighbor, 0, len(overlap))
	for id, sim := range overlap {
		neighbors = append(neighbors, neighbor{userID: id, similarity: sim})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity == neighbors[j].similarity {
			return neighbors[i].userID < neighbors[j].userID
		}
		return neighbors[i].similarity > neighbors[j].similarity
	})
	if len(neighbors) > topK {
		neighbors = neighbors[:topK]
	}

	// 4. 邻居的其他商品加权累加（跳过目标用户交互过的商品）
	raw := make(map[string]float64)
	for _, nb := range neighbors {
		nbInters, err := s.Store.UserInteractions(ctx, nb.userID)
		if err != nil {
			return nil, err
		}
		for _, inter := range nbInters {
			if _, seen := targetItems[inter.ProductID]; seen {
				continue
			}
			raw[inter.ProductID] += nb.similarity * interactionWeight(inter, weights, halfLife, now)
		}
	}

	if len(raw) == 0 {
		return nil, core.ErrInsufficientData
	}

	// 5. 反热门归一：score = raw / log(e + views + purchases)
	stats, err := s.Store.PopularityStats(ctx)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(raw))
	for productID, r := range raw {
		denom := math.Log(math.E + float64(stats[productID].Views+stats[productID].Purchases))
		scores[productID] = r / denom
	}

	return rankScores(scores, limit), nil
}

var _ Scorer = (*CollaborativeScorer)(nil)
