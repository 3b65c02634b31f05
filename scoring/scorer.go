package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rushteam/shoprec/core"
)

// Scorer 表示一个可复用的打分策略（热门/内容/协同/混合）。
// 你可以把它理解为"可独立调用、可互相兜底的策略单元"。
type Scorer interface {
	Name() string
	Score(ctx context.Context, userID string, limit int) ([]core.ScoredProduct, error)
}

// TypeWeights 是行为类型权重。
// 约束：Purchase > Rating > View（购买是最强的偏好信号）。
type TypeWeights struct {
	View     float64
	Rating   float64
	Purchase float64
}

// DefaultTypeWeights 返回默认行为权重。
func DefaultTypeWeights() TypeWeights {
	return TypeWeights{View: 1.0, Rating: 2.0, Purchase: 3.0}
}

// Of 返回指定行为类型的权重。
func (w TypeWeights) Of(t core.InteractionType) float64 {
	switch t {
	case core.InteractionPurchase:
		return w.Purchase
	case core.InteractionRating:
		return w.Rating
	default:
		return w.View
	}
}

// decayWeight 计算时间衰减系数：指数半衰期，单调不增。
// age 为行为距今的时长；halfLife 为半衰期（每过一个半衰期权重减半）。
func decayWeight(age, halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 1.0
	}
	if age < 0 {
		age = 0
	}
	return math.Exp2(-float64(age) / float64(halfLife))
}

// interactionWeight 计算单条交互的贡献：类型权重 × 时间衰减。
// 评分行为额外按分值（1-5 归一到 0-1）缩放，高分行为贡献更大。
func interactionWeight(inter core.Interaction, weights TypeWeights, halfLife time.Duration, now time.Time) float64 {
	w := weights.Of(inter.Type) * decayWeight(now.Sub(inter.Timestamp), halfLife)
	if inter.Type == core.InteractionRating && inter.Value > 0 {
		w *= math.Min(inter.Value, 5) / 5
	}
	return w
}

// rankScores 将 score map 转为确定性排序的列表：
// 按分数降序，同分按 productId 升序。limit > 0 时截断。
// 相同输入永远产出相同顺序，保证打分是纯函数。
func rankScores(scores map[string]float64, limit int) []core.ScoredProduct {
	out := make([]core.ScoredProduct, 0, len(scores))
	for id, s := range scores {
		out = append(out, core.ScoredProduct{ProductID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// purchasedSet 收集用户已购买的商品集合（用于内容/协同的排除逻辑）。
func purchasedSet(interactions []core.Interaction) map[string]struct{} {
	purchased := make(map[string]struct{})
	for _, inter := range interactions {
		if inter.IsPurchase() {
			purchased[inter.ProductID] = struct{}{}
		}
	}
	return purchased
}
