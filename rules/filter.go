// Package rules 提供基于 CEL (Common Expression Language) 的推荐结果规则过滤。
//
// 运营可以用表达式把商品从推荐位上排除（例如下架类目、清仓品牌、超价商品），
// 规则命中即剔除。CEL 类型安全、线程安全，表达式在构建时编译一次后复用。
//
// 表达式可引用的变量：
//   - product: 商品属性（product_id / category_id / brand_id / tags / price / price_tier）
//   - score:   当前推荐分数
//
// 示例：
//   - `product.category_id == "clearance"`           → 排除清仓类目
//   - `product.price > 5000.0 && score < 0.2`        → 低分高价商品不上推荐位
//   - `"refurbished" in product.tags`                → 排除翻新商品
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

// Filter 是一组编译好的排除规则。零值（无规则）时 Apply 原样返回。
type Filter struct {
	programs []cel.Program
}

// NewFilter 编译一组 CEL 排除表达式。
// 任何一条编译失败都返回错误，避免带病规则上线。
func NewFilter(exprs ...string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("product", cel.DynType),
		cel.Variable("score", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: create cel env: %w", err)
	}

	f := &Filter{programs: make([]cel.Program, 0, len(exprs))}
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rules: compile %q: %w", expr, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rules: program %q: %w", expr, err)
		}
		f.programs = append(f.programs, prg)
	}
	return f, nil
}

// Len 返回已编译的规则数。
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.programs)
}

// Apply 对打分结果逐条执行规则，命中任意一条的商品被剔除。
// catalog 提供商品属性；目录里查不到的商品不做规则判断，直接保留。
// 规则执行出错时按不命中处理（规则故障不应清空推荐位）。
func (f *Filter) Apply(items []core.ScoredProduct, catalog map[string]core.ProductAttributes) []core.ScoredProduct {
	if f == nil || len(f.programs) == 0 || len(items) == 0 {
		return items
	}

	out := make([]core.ScoredProduct, 0, len(items))
	for _, it := range items {
		attrs, ok := catalog[it.ProductID]
		if !ok || !f.excluded(attrs, it.Score) {
			out = append(out, it)
		}
	}
	return out
}

// excluded 判断单个商品是否命中任意一条排除规则。
func (f *Filter) excluded(attrs core.ProductAttributes, score float64) bool {
	input := map[string]any{
		"product": productInput(attrs),
		"score":   score,
	}
	for _, prg := range f.programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			return true
		}
	}
	return false
}

// productInput 将商品属性展开为 CEL 可访问的 map。
func productInput(attrs core.ProductAttributes) map[string]any {
	tags := make([]string, len(attrs.Tags))
	copy(tags, attrs.Tags)
	return map[string]any{
		"product_id":  attrs.ProductID,
		"category_id": attrs.CategoryID,
		"brand_id":    attrs.BrandID,
		"tags":        tags,
		"price":       attrs.Price,
		"price_tier":  attrs.PriceTier(),
	}
}
