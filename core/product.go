package core

// ProductAttributes 是商品侧用于相似度计算的属性集合。
//
// 使用场景：
//   - 内容推荐：类目/品牌/标签/价格档构成商品特征向量
//   - 规则过滤：CEL 表达式可直接引用这些字段
type ProductAttributes struct {
	ProductID  string   `json:"product_id"`
	CategoryID string   `json:"category_id"`
	BrandID    string   `json:"brand_id"`
	Tags       []string `json:"tags"`
	Price      float64  `json:"price"`
}

// PriceTier 根据价格返回价格档（budget / mid / premium）。
// 档位阈值是经验值，作为内容特征的一个维度参与相似度计算。
func (p ProductAttributes) PriceTier() string {
	switch {
	case p.Price < 50:
		return "budget"
	case p.Price < 300:
		return "mid"
	default:
		return "premium"
	}
}

// FeatureVector 将商品属性展开为特征向量（key -> weight）。
// 特征 key 带前缀区分维度：category: / brand: / tag: / price_tier:。
func (p ProductAttributes) FeatureVector() map[string]float64 {
	features := make(map[string]float64, len(p.Tags)+3)
	if p.CategoryID != "" {
		features["category:"+p.CategoryID] = 1.0
	}
	if p.BrandID != "" {
		features["brand:"+p.BrandID] = 1.0
	}
	for _, tag := range p.Tags {
		if tag != "" {
			features["tag:"+tag] = 1.0
		}
	}
	features["price_tier:"+p.PriceTier()] = 1.0
	return features
}

// PopularityStats 是商品的全局热度计数（跨用户聚合）。
type PopularityStats struct {
	Views     int64   `json:"views"`
	Purchases int64   `json:"purchases"`
	AvgRating float64 `json:"avg_rating"`
}

// ScoredProduct 是打分结果的最小单元：(productId, score)。
// Score 为非负实数；列表按 Score 降序、同分按 ProductID 升序排列。
type ScoredProduct struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}
