// Package shoprec 是电商商品推荐引擎（Shop Recommender）。
//
// 设计要点：
// - 策略封闭枚举: 四种算法（TRENDING / CONTENT_BASED / COLLABORATIVE / HYBRID）各有独立处理分支，数据不足统一降级到 TRENDING
// - 缓存软状态: 按 (userId, algorithm) 维度缓存 24h，读时过期权威，后写胜出
// - 依赖注入: 存储与数据源都是显式传入的接口，测试可用内存实现替换
package shoprec

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/scoring"
	"github.com/rushteam/shoprec/service"
)

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Algorithm = core.Algorithm
type ScoredProduct = core.ScoredProduct
type Interaction = core.Interaction
type Engine = scoring.Engine
type Service = service.Service
type Result = service.Result

const (
	AlgorithmTrending      = core.AlgorithmTrending
	AlgorithmContentBased  = core.AlgorithmContentBased
	AlgorithmCollaborative = core.AlgorithmCollaborative
	AlgorithmHybrid        = core.AlgorithmHybrid
)
