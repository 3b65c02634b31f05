package core

import "time"

// InteractionType 是用户行为类型：浏览 / 购买 / 评分。
type InteractionType string

const (
	InteractionView     InteractionType = "view"     // 浏览
	InteractionPurchase InteractionType = "purchase" // 购买
	InteractionRating   InteractionType = "rating"   // 评分
)

// Interaction 是用户-商品交互记录，协同信号与内容信号的唯一事实来源。
//
// 设计要点：
//   - 追加写（append-only），一旦写入不再修改
//   - Value 的语义随 Type 变化：评分为 1-5 的分值，浏览/购买通常为 1
//   - Timestamp 用于时间衰减（越新的行为权重越高）
type Interaction struct {
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Type      InteractionType `json:"type"`
	Value     float64         `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// IsPurchase 判断是否为购买行为。
// 内容推荐与协同推荐需要排除用户已购买的商品。
func (i Interaction) IsPurchase() bool {
	return i.Type == InteractionPurchase
}
