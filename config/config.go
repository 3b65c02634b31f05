// Package config 提供推荐服务的 YAML 配置加载与装配。
//
// 打分公式中的常量（半衰期、合并权重、邻居数等）都是可调参数而非硬性要求，
// 全部收敛到配置里，线上调参不改代码。
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/cache"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/rules"
	"github.com/rushteam/shoprec/scoring"
	"github.com/rushteam/shoprec/service"
	"github.com/rushteam/shoprec/source"
	"github.com/rushteam/shoprec/store"
)

// Config 是推荐服务的完整配置。
type Config struct {
	Store struct {
		// Backend 存储后端：memory / redis，默认 memory
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Scoring struct {
		Trending struct {
			HalfLife string `yaml:"half_life"` // 如 "12h"
			Window   string `yaml:"window"`    // 如 "168h"
		} `yaml:"trending"`
		Content struct {
			Metric   string `yaml:"metric"` // cosine / jaccard
			HalfLife string `yaml:"half_life"`
		} `yaml:"content"`
		Collaborative struct {
			MinNeighbors  int `yaml:"min_neighbors"`
			TopKNeighbors int `yaml:"top_k_neighbors"`
		} `yaml:"collaborative"`
		Hybrid struct {
			CollaborativeWeight float64 `yaml:"collaborative_weight"`
			ContentWeight       float64 `yaml:"content_weight"`
		} `yaml:"hybrid"`
	} `yaml:"scoring"`

	Service struct {
		// ConservativeInvalidate 为 true 时用户失效连 TRENDING 一起清
		ConservativeInvalidate bool `yaml:"conservative_invalidate"`
	} `yaml:"service"`

	// Rules 运营排除规则（CEL 表达式）
	Rules []string `yaml:"rules"`
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// parseDuration 解析时长配置；空串或解析失败时返回 0（各组件用自身默认值）。
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// BuildStore 根据配置创建存储后端。
func (c *Config) BuildStore() (core.KeyValueStore, error) {
	switch c.Store.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(c.Store.Redis.Addr, c.Store.Redis.DB)
	}
	return nil, fmt.Errorf("unsupported store backend %q (supported: memory, redis)", c.Store.Backend)
}

// BuildService 装配完整的推荐服务：存储 → 数据源 → 缓存 → 规则 → 门面。
func (c *Config) BuildService(logger *zap.Logger) (*service.Service, error) {
	kv, err := c.BuildStore()
	if err != nil {
		return nil, err
	}

	src := source.NewStoreSource(kv)

	opts := []scoring.Option{}
	if c.Scoring.Hybrid.CollaborativeWeight > 0 || c.Scoring.Hybrid.ContentWeight > 0 {
		opts = append(opts, scoring.WithHybridWeights(c.Scoring.Hybrid.CollaborativeWeight, c.Scoring.Hybrid.ContentWeight))
	}
	if c.Scoring.Content.Metric != "" {
		opts = append(opts, scoring.WithContentMetric(c.Scoring.Content.Metric))
	}
	if c.Scoring.Collaborative.MinNeighbors > 0 {
		opts = append(opts, scoring.WithMinNeighbors(c.Scoring.Collaborative.MinNeighbors))
	}

	svc := service.New(src, cache.New(kv), logger, opts...)
	svc.ConservativeInvalidate = c.Service.ConservativeInvalidate

	// 细粒度调参：构建后直接写到各策略
	if d := parseDuration(c.Scoring.Trending.HalfLife); d > 0 {
		svc.Engine.Trending.HalfLife = d
	}
	if d := parseDuration(c.Scoring.Trending.Window); d > 0 {
		svc.Engine.Trending.Window = d
	}
	if d := parseDuration(c.Scoring.Content.HalfLife); d > 0 {
		svc.Engine.Content.HalfLife = d
	}
	if n := c.Scoring.Collaborative.TopKNeighbors; n > 0 {
		svc.Engine.Collaborative.TopKNeighbors = n
	}

	if len(c.Rules) > 0 {
		filter, err := rules.NewFilter(c.Rules...)
		if err != nil {
			return nil, err
		}
		svc.Rules = filter
	}

	return svc, nil
}
