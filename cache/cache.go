// Package cache 实现按 (userId, algorithm) 维度的推荐结果缓存。
//
// 设计要点：
//   - 固定 24h TTL，不随请求配置
//   - 读时过期权威：过期条目即使仍在存储中也视同不存在
//   - 整条 JSON 单 key 覆盖写，读者只会看到旧条目或完整的新条目
//   - 并发双计算双写允许，后写胜出（软状态缓存，非账本）
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/shoprec/core"
)

// TTL 是缓存条目的固定生存时长。
const TTL = 24 * time.Hour

// DefaultKeyPrefix 是存储 key 的默认前缀。
const DefaultKeyPrefix = "rec"

// Entry 是一条缓存记录：Products 与 Scores 是等长平行数组，
// 下标 i 的商品对应下标 i 的分数，按分数降序、同分 productId 升序。
type Entry struct {
	UserID      string         `json:"user_id"`
	Algorithm   core.Algorithm `json:"algorithm"`
	Products    []string       `json:"products"`
	Scores      []float64      `json:"scores"`
	GeneratedAt time.Time      `json:"generated_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// Expired 判断条目在 now 时刻是否已过期。
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Items 将平行数组还原为 (productId, score) 列表。
func (e *Entry) Items() []core.ScoredProduct {
	out := make([]core.ScoredProduct, 0, len(e.Products))
	for i, id := range e.Products {
		var score float64
		if i < len(e.Scores) {
			score = e.Scores[i]
		}
		out = append(out, core.ScoredProduct{ProductID: id, Score: score})
	}
	return out
}

// RecommendationCache 是推荐结果缓存，底层存储通过 core.Store 注入，
// 便于测试替换（内存实现 vs Redis）。
type RecommendationCache struct {
	Store core.Store

	// KeyPrefix 存储 key 前缀，实际 key 为 {KeyPrefix}:{userId}:{algorithm}
	KeyPrefix string

	// now 可注入的时钟，便于测试；nil 时使用 time.Now
	now func() time.Time
}

// New 创建推荐缓存。
func New(store core.Store) *RecommendationCache {
	return &RecommendationCache{Store: store, KeyPrefix: DefaultKeyPrefix}
}

// Key 返回 (userId, algorithm) 对应的存储 key。
func (c *RecommendationCache) Key(userID string, algorithm core.Algorithm) string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + ":" + userID + ":" + string(algorithm)
}

func (c *RecommendationCache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Get 读取缓存条目。
// 条目不存在或已过期返回 (nil, nil)；过期条目顺手删除（懒清理）。
// 存储故障返回 cache/UNAVAILABLE 错误，由调用方决定是否绕过缓存。
func (c *RecommendationCache) Get(ctx context.Context, userID string, algorithm core.Algorithm) (*Entry, error) {
	key := c.Key(userID, algorithm)
	data, err := c.Store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, core.WrapDomainError(core.ModuleCache, core.ErrorCodeUnavailable, "cache: get failed", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// 损坏条目视同不存在，触发重算覆盖
		return nil, nil
	}
	if entry.Expired(c.clock()) {
		_ = c.Store.Delete(ctx, key)
		return nil, nil
	}
	return &entry, nil
}

// Put 写入新条目：GeneratedAt = now，ExpiresAt = now + 24h。
// 整条 JSON 一次 Set 覆盖旧条目，对并发读者是原子替换。
func (c *RecommendationCache) Put(ctx context.Context, userID string, algorithm core.Algorithm, items []core.ScoredProduct) (*Entry, error) {
	now := c.clock()
	entry := &Entry{
		UserID:      userID,
		Algorithm:   algorithm,
		Products:    make([]string, 0, len(items)),
		Scores:      make([]float64, 0, len(items)),
		GeneratedAt: now,
		ExpiresAt:   now.Add(TTL),
	}
	for _, it := range items {
		entry.Products = append(entry.Products, it.ProductID)
		entry.Scores = append(entry.Scores, it.Score)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCache, core.ErrorCodeUnavailable, "cache: marshal failed", err)
	}
	// 存储层 TTL 与条目内 ExpiresAt 一致，过期后由后端自行回收
	if err := c.Store.Set(ctx, c.Key(userID, algorithm), data, int(TTL/time.Second)); err != nil {
		return nil, core.WrapDomainError(core.ModuleCache, core.ErrorCodeUnavailable, "cache: set failed", err)
	}
	return entry, nil
}

// Invalidate 删除指定用户的缓存条目。
// 不指定算法时清除用户相关的三个个性化条目（COLLABORATIVE / CONTENT_BASED /
// HYBRID），保留与用户无关的 TRENDING；需要连 TRENDING 一起清时显式传入。
func (c *RecommendationCache) Invalidate(ctx context.Context, userID string, algorithms ...core.Algorithm) error {
	if len(algorithms) == 0 {
		algorithms = []core.Algorithm{
			core.AlgorithmCollaborative,
			core.AlgorithmContentBased,
			core.AlgorithmHybrid,
		}
	}
	for _, algorithm := range algorithms {
		if err := c.Store.Delete(ctx, c.Key(userID, algorithm)); err != nil {
			return core.WrapDomainError(core.ModuleCache, core.ErrorCodeUnavailable, "cache: invalidate failed", err)
		}
	}
	return nil
}

// InvalidateAll 保守失效：清除用户全部算法的条目（含 TRENDING）。
func (c *RecommendationCache) InvalidateAll(ctx context.Context, userID string) error {
	return c.Invalidate(ctx, userID, core.Algorithms()...)
}
