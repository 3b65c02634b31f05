// Package service 是推荐系统的服务门面：算法校验、缓存编排、降级与重试。
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shoprec/cache"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/rules"
	"github.com/rushteam/shoprec/scoring"
)

// 结果数量约束：默认 10，上限 50。
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// retryBackoff 是数据源瞬时故障的单次重试等待时长。
const retryBackoff = 100 * time.Millisecond

// Result 是一次推荐请求的响应。
type Result struct {
	Success  bool                 `json:"success"`
	Products []core.ScoredProduct `json:"products"`
	Cached   bool                 `json:"cached"`
}

// Service 是推荐服务门面。
//
// 请求流程：校验算法 → 查缓存 → 命中直接返回（cached=true）/
// 未命中调引擎打分 → 规则过滤 → 写缓存 → 返回（cached=false）。
//
// 降级约定：
//   - 缓存故障不致请求失败：记 warn 日志后绕过缓存直接计算
//   - 数据源不可用：退避重试一次，仍失败则上抛（不返回猜测的结果）
//   - 过期条目永远不会被返回（读时过期权威在 cache 层）
type Service struct {
	Engine *scoring.Engine
	Cache  *cache.RecommendationCache

	// Source 供规则过滤取商品属性；通常与 Engine 共用同一数据源
	Source scoring.DataSource

	// Rules 可选的运营排除规则，nil 时不做过滤
	Rules *rules.Filter

	// ConservativeInvalidate 为 true 时 InvalidateUser 连 TRENDING 一起清
	ConservativeInvalidate bool

	logger *zap.Logger
}

// New 创建推荐服务。logger 传 nil 时使用 zap.NewNop。
func New(src scoring.DataSource, c *cache.RecommendationCache, logger *zap.Logger, opts ...scoring.Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Engine: scoring.NewEngine(src, opts...),
		Cache:  c,
		Source: src,
		logger: logger,
	}
}

// Logger 返回服务使用的 logger（nil 安全）。
func (s *Service) Logger() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

// clampLimit 归一结果数量：非正用默认值，超上限截到上限。
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// GetRecommendations 是对外的唯一推荐入口。
// algorithm 为空串时默认 HYBRID；未知取值返回 ErrInvalidAlgorithm。
func (s *Service) GetRecommendations(ctx context.Context, userID, algorithm string, limit int) (*Result, error) {
	alg, err := core.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	// 1. 查缓存；缓存故障只降级不失败
	cacheUp := true
	if entry, err := s.Cache.Get(ctx, userID, alg); err != nil {
		cacheUp = false
		s.Logger().Warn("recommendation cache unavailable, bypassing",
			zap.String("user_id", userID),
			zap.String("algorithm", string(alg)),
			zap.Error(err))
	} else if entry != nil {
		items := entry.Items()
		if limit < len(items) {
			items = items[:limit]
		}
		return &Result{Success: true, Products: items, Cached: true}, nil
	}

	// 2. 未命中：引擎打分（数据源瞬时故障重试一次）
	items, err := s.scoreWithRetry(ctx, userID, alg, limit)
	if err != nil {
		return nil, err
	}

	// 3. 运营规则过滤
	items = s.applyRules(ctx, items)

	// 4. 回写缓存；写失败同样只降级
	if cacheUp {
		if _, err := s.Cache.Put(ctx, userID, alg, items); err != nil {
			s.Logger().Warn("recommendation cache put failed",
				zap.String("user_id", userID),
				zap.String("algorithm", string(alg)),
				zap.Error(err))
		}
	}

	return &Result{Success: true, Products: items, Cached: false}, nil
}

// scoreWithRetry 调用引擎打分；数据源不可用时退避后重试一次。
// 打分本身是确定性纯函数，不做重试。
func (s *Service) scoreWithRetry(ctx context.Context, userID string, alg core.Algorithm, limit int) ([]core.ScoredProduct, error) {
	items, err := s.Engine.Score(ctx, userID, alg, limit)
	if err == nil || !core.IsSourceUnavailable(err) {
		return items, err
	}

	s.Logger().Warn("data source unavailable, retrying once",
		zap.String("user_id", userID),
		zap.Error(err))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}
	return s.Engine.Score(ctx, userID, alg, limit)
}

// applyRules 执行运营排除规则；取目录失败时跳过过滤（规则是锦上添花）。
func (s *Service) applyRules(ctx context.Context, items []core.ScoredProduct) []core.ScoredProduct {
	if s.Rules.Len() == 0 || s.Source == nil {
		return items
	}
	catalog, err := s.Source.CatalogAttributes(ctx)
	if err != nil {
		s.Logger().Warn("rule filter skipped: catalog unavailable", zap.Error(err))
		return items
	}
	return s.Rules.Apply(items, catalog)
}

// InvalidateUser 在用户交互历史发生实质变化（如新购买）后调用，
// 清除个性化算法的缓存条目；TRENDING 与用户无关默认保留，
// ConservativeInvalidate 打开时一并清除。
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	if s.ConservativeInvalidate {
		return s.Cache.InvalidateAll(ctx, userID)
	}
	return s.Cache.Invalidate(ctx, userID)
}
