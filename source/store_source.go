// Package source 提供打分引擎消费的数据源实现。
//
// StoreSource 把交互流水和商品目录放在一个 core.KeyValueStore 里：
//   - 交互按用户 / 商品两个方向各存一份 JSON 文档（追加写）
//   - 全局近期流水单独一份，供热门打分扫描
//   - 热度计数用有序集合累加
//   - 商品属性放在一个 Hash 里，全量目录一次 HGetAll
package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/shoprec/core"
)

// 存储 key 约定
const (
	keyUserPrefix    = "inter:user:"    // {prefix}{userId} -> JSON []Interaction
	keyProductPrefix = "inter:product:" // {prefix}{productId} -> JSON []Interaction
	keyRecent        = "inter:recent"   // 全局近期流水 -> JSON []Interaction
	keyCatalog       = "catalog:products"
	keyPopViews      = "pop:views"
	keyPopPurchases  = "pop:purchases"
	keyPopRatingSum  = "pop:rating_sum"
	keyPopRatingCnt  = "pop:rating_count"
)

// StoreSource 是基于 KeyValueStore 的交互/商品数据源。
// 同时实现 scoring.DataSource 的全部窄接口。
type StoreSource struct {
	Store core.KeyValueStore

	// RetainWindow 全局流水的保留时长，默认 30 天；
	// 写入时裁剪更旧的记录，防止流水无限增长。
	RetainWindow time.Duration
}

// NewStoreSource 创建数据源。
func NewStoreSource(store core.KeyValueStore) *StoreSource {
	return &StoreSource{Store: store, RetainWindow: 30 * 24 * time.Hour}
}

// wrapUnavailable 将底层存储故障统一为数据源不可用错误。
func wrapUnavailable(msg string, err error) error {
	return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, msg, err)
}

// readInteractions 读取一份 JSON 交互文档；key 不存在视为空历史。
func (s *StoreSource) readInteractions(ctx context.Context, key string) ([]core.Interaction, error) {
	data, err := s.Store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, wrapUnavailable("source: read interactions failed", err)
	}
	var out []core.Interaction
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, wrapUnavailable("source: decode interactions failed", err)
	}
	return out, nil
}

func (s *StoreSource) writeInteractions(ctx context.Context, key string, inters []core.Interaction) error {
	data, err := json.Marshal(inters)
	if err != nil {
		return wrapUnavailable("source: encode interactions failed", err)
	}
	if err := s.Store.Set(ctx, key, data); err != nil {
		return wrapUnavailable("source: write interactions failed", err)
	}
	return nil
}

// UserInteractions 获取用户交互历史（时间升序，最新在后）。
func (s *StoreSource) UserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	return s.readInteractions(ctx, keyUserPrefix+userID)
}

// ProductInteractions 获取商品维度的交互倒排。
func (s *StoreSource) ProductInteractions(ctx context.Context, productID string) ([]core.Interaction, error) {
	return s.readInteractions(ctx, keyProductPrefix+productID)
}

// RecentInteractions 获取 since 之后的全局交互流水。
func (s *StoreSource) RecentInteractions(ctx context.Context, since time.Time) ([]core.Interaction, error) {
	all, err := s.readInteractions(ctx, keyRecent)
	if err != nil {
		return nil, err
	}
	out := make([]core.Interaction, 0, len(all))
	for _, inter := range all {
		if !inter.Timestamp.Before(since) {
			out = append(out, inter)
		}
	}
	return out, nil
}

// CatalogAttributes 获取全量商品属性。
func (s *StoreSource) CatalogAttributes(ctx context.Context) (map[string]core.ProductAttributes, error) {
	fields, err := s.Store.HGetAll(ctx, keyCatalog)
	if err != nil {
		return nil, wrapUnavailable("source: read catalog failed", err)
	}
	out := make(map[string]core.ProductAttributes, len(fields))
	for productID, data := range fields {
		var attrs core.ProductAttributes
		if err := json.Unmarshal(data, &attrs); err != nil {
			continue // 跳过损坏的目录条目
		}
		out[productID] = attrs
	}
	return out, nil
}

// AllProducts 获取全部商品 ID。
func (s *StoreSource) AllProducts(ctx context.Context) ([]string, error) {
	catalog, err := s.CatalogAttributes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(catalog))
	for id := range catalog {
		out = append(out, id)
	}
	return out, nil
}

// PopularityStats 汇总全量商品的热度计数。
func (s *StoreSource) PopularityStats(ctx context.Context) (map[string]core.PopularityStats, error) {
	products, err := s.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.PopularityStats, len(products))
	for _, id := range products {
		stats := core.PopularityStats{}
		if v, err := s.Store.ZScore(ctx, keyPopViews, id); err == nil {
			stats.Views = int64(v)
		}
		if v, err := s.Store.ZScore(ctx, keyPopPurchases, id); err == nil {
			stats.Purchases = int64(v)
		}
		sum, errSum := s.Store.ZScore(ctx, keyPopRatingSum, id)
		cnt, errCnt := s.Store.ZScore(ctx, keyPopRatingCnt, id)
		if errSum == nil && errCnt == nil && cnt > 0 {
			stats.AvgRating = sum / cnt
		}
		out[id] = stats
	}
	return out, nil
}

// PutProduct 写入/覆盖一个商品的目录属性。
func (s *StoreSource) PutProduct(ctx context.Context, attrs core.ProductAttributes) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return wrapUnavailable("source: encode product failed", err)
	}
	if err := s.Store.HSet(ctx, keyCatalog, attrs.ProductID, data); err != nil {
		return wrapUnavailable("source: write product failed", err)
	}
	return nil
}

// RecordInteraction 追加一条交互：同时维护用户文档、商品倒排、
// 全局流水和热度计数。交互是追加写，历史永不修改。
func (s *StoreSource) RecordInteraction(ctx context.Context, inter core.Interaction) error {
	if inter.Timestamp.IsZero() {
		inter.Timestamp = time.Now()
	}

	userKey := keyUserPrefix + inter.UserID
	userInters, err := s.readInteractions(ctx, userKey)
	if err != nil {
		return err
	}
	if err := s.writeInteractions(ctx, userKey, append(userInters, inter)); err != nil {
		return err
	}

	productKey := keyProductPrefix + inter.ProductID
	productInters, err := s.readInteractions(ctx, productKey)
	if err != nil {
		return err
	}
	if err := s.writeInteractions(ctx, productKey, append(productInters, inter)); err != nil {
		return err
	}

	recent, err := s.readInteractions(ctx, keyRecent)
	if err != nil {
		return err
	}
	recent = append(recent, inter)
	recent = s.pruneRecent(recent, inter.Timestamp)
	if err := s.writeInteractions(ctx, keyRecent, recent); err != nil {
		return err
	}

	return s.bumpPopularity(ctx, inter)
}

// pruneRecent 裁剪全局流水中超出保留窗口的记录。
func (s *StoreSource) pruneRecent(recent []core.Interaction, now time.Time) []core.Interaction {
	window := s.RetainWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	cutoff := now.Add(-window)
	out := recent[:0]
	for _, inter := range recent {
		if !inter.Timestamp.Before(cutoff) {
			out = append(out, inter)
		}
	}
	return out
}

// bumpPopularity 按交互类型累加热度计数。
func (s *StoreSource) bumpPopularity(ctx context.Context, inter core.Interaction) error {
	var err error
	switch inter.Type {
	case core.InteractionView:
		err = s.Store.ZIncrBy(ctx, keyPopViews, 1, inter.ProductID)
	case core.InteractionPurchase:
		err = s.Store.ZIncrBy(ctx, keyPopPurchases, 1, inter.ProductID)
	case core.InteractionRating:
		if err = s.Store.ZIncrBy(ctx, keyPopRatingSum, inter.Value, inter.ProductID); err == nil {
			err = s.Store.ZIncrBy(ctx, keyPopRatingCnt, 1, inter.ProductID)
		}
	}
	if err != nil {
		return wrapUnavailable("source: bump popularity failed", err)
	}
	return nil
}
