package source

import (
	"context"
	"strings"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

// 商品侧在 Feast 中注册的特征引用。
const (
	featCategory  = "product_attributes:category_id"
	featBrand     = "product_attributes:brand_id"
	featTags      = "product_attributes:tags" // 逗号分隔
	featPrice     = "product_attributes:price"
	featViews     = "product_stats:view_count"
	featPurchases = "product_stats:purchase_count"
	featAvgRating = "product_stats:avg_rating"
)

// FeatureClient 是 Feast 在线特征客户端的最小接口，
// *feastsdk.GrpcClient 满足此接口；测试中可用假实现替换。
type FeatureClient interface {
	GetOnlineFeatures(ctx context.Context, req *feastsdk.OnlineFeaturesRequest) (*feastsdk.OnlineFeaturesResponse, error)
}

// ProductLister 提供商品 ID 的全量列表。
// 特征仓库只做点查，ID 列表需要由目录方（通常是 StoreSource）提供。
type ProductLister interface {
	AllProducts(ctx context.Context) ([]string, error)
}

// FeastCatalog 从 Feast Feature Store 拉取商品属性与热度计数。
//
// 使用场景：商品属性/统计由离线管道物化到特征仓库，推荐服务在线点查，
// 不再依赖本地目录副本。交互流水仍然走 StoreSource。
type FeastCatalog struct {
	Client  FeatureClient
	Project string
	Lister  ProductLister
}

// NewFeastCatalog 连接 Feast Feature Server 并构建目录源。
func NewFeastCatalog(host string, port int, project string, lister ProductLister) (*FeastCatalog, error) {
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, wrapUnavailable("source: connect feast failed", err)
	}
	return &FeastCatalog{Client: client, Project: project, Lister: lister}, nil
}

// fetchRows 对一批商品做在线特征点查，返回与 productIDs 对齐的特征行。
func (f *FeastCatalog) fetchRows(ctx context.Context, productIDs []string, features []string) ([]feastsdk.Row, error) {
	entities := make([]feastsdk.Row, len(productIDs))
	for i, id := range productIDs {
		entities[i] = feastsdk.Row{"product_id": feastsdk.StrVal(id)}
	}
	resp, err := f.Client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: entities,
		Project:  f.Project,
	})
	if err != nil {
		return nil, wrapUnavailable("source: feast get online features failed", err)
	}
	rows := resp.Rows()
	if len(rows) != len(productIDs) {
		return nil, wrapUnavailable("source: feast row count mismatch", nil)
	}
	return rows, nil
}

// AllProducts 委托给 Lister。
func (f *FeastCatalog) AllProducts(ctx context.Context) ([]string, error) {
	return f.Lister.AllProducts(ctx)
}

// CatalogAttributes 获取全量商品属性。
func (f *FeastCatalog) CatalogAttributes(ctx context.Context) (map[string]core.ProductAttributes, error) {
	productIDs, err := f.Lister.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return map[string]core.ProductAttributes{}, nil
	}

	rows, err := f.fetchRows(ctx, productIDs, []string{featCategory, featBrand, featTags, featPrice})
	if err != nil {
		return nil, err
	}

	out := make(map[string]core.ProductAttributes, len(productIDs))
	for i, id := range productIDs {
		attrs := core.ProductAttributes{ProductID: id}
		attrs.CategoryID = stringFeature(rows[i], featCategory)
		attrs.BrandID = stringFeature(rows[i], featBrand)
		if tags := stringFeature(rows[i], featTags); tags != "" {
			attrs.Tags = strings.Split(tags, ",")
		}
		attrs.Price = floatFeature(rows[i], featPrice)
		out[id] = attrs
	}
	return out, nil
}

// PopularityStats 获取全量商品的热度计数。
func (f *FeastCatalog) PopularityStats(ctx context.Context) (map[string]core.PopularityStats, error) {
	productIDs, err := f.Lister.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return map[string]core.PopularityStats{}, nil
	}

	rows, err := f.fetchRows(ctx, productIDs, []string{featViews, featPurchases, featAvgRating})
	if err != nil {
		return nil, err
	}

	out := make(map[string]core.PopularityStats, len(productIDs))
	for i, id := range productIDs {
		out[id] = core.PopularityStats{
			Views:     int64(floatFeature(rows[i], featViews)),
			Purchases: int64(floatFeature(rows[i], featPurchases)),
			AvgRating: floatFeature(rows[i], featAvgRating),
		}
	}
	return out, nil
}

// stringFeature 从特征行提取字符串值。
func stringFeature(row feastsdk.Row, name string) string {
	val, ok := row[name]
	if !ok || val == nil {
		return ""
	}
	return val.GetStringVal()
}

// floatFeature 从特征行提取数值，兼容 double / int64 / float 存储。
func floatFeature(row feastsdk.Row, name string) float64 {
	val, ok := row[name]
	if !ok || val == nil {
		return 0
	}
	switch v := val.Val.(type) {
	case *feasttypes.Value_DoubleVal:
		return v.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(v.FloatVal)
	case *feasttypes.Value_Int64Val:
		return float64(v.Int64Val)
	case *feasttypes.Value_Int32Val:
		return float64(v.Int32Val)
	case *feasttypes.Value_StringVal:
		if f, ok := conv.ParseFloat(v.StringVal); ok {
			return f
		}
	}
	return 0
}

// FeastSource 组合 StoreSource（交互流水）与 FeastCatalog（商品目录），
// 满足打分引擎的完整数据契约。
type FeastSource struct {
	*StoreSource
	Catalog *FeastCatalog
}

// NewFeastSource 构建混合数据源：交互走 Store，目录走 Feast。
func NewFeastSource(interactions *StoreSource, catalog *FeastCatalog) *FeastSource {
	if catalog.Lister == nil {
		catalog.Lister = interactions
	}
	return &FeastSource{StoreSource: interactions, Catalog: catalog}
}

func (s *FeastSource) CatalogAttributes(ctx context.Context) (map[string]core.ProductAttributes, error) {
	return s.Catalog.CatalogAttributes(ctx)
}

func (s *FeastSource) PopularityStats(ctx context.Context) (map[string]core.PopularityStats, error) {
	return s.Catalog.PopularityStats(ctx)
}

func (s *FeastSource) AllProducts(ctx context.Context) ([]string, error) {
	return s.Catalog.AllProducts(ctx)
}
