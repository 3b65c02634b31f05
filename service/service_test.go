package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/shoprec/cache"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/rules"
	"github.com/rushteam/shoprec/source"
	"github.com/rushteam/shoprec/store"
)

// failingStore 模拟缓存后端宕机。
type failingStore struct{}

func (failingStore) Name() string { return "failing" }
func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}
func (failingStore) BatchGet(context.Context, []string) (map[string][]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Close() error { return nil }

// newTestService 搭一套完整链路：内存存储 + 数据源 + 缓存 + 门面。
func newTestService(t *testing.T) (*Service, *source.StoreSource) {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { ms.Close() })

	src := source.NewStoreSource(ms)
	svc := New(src, cache.New(ms), nil)
	return svc, src
}

func seedCatalog(t *testing.T, src *source.StoreSource, n int) {
	t.Helper()
	ctx := context.Background()
	ids := []string{"p01", "p02", "p03", "p04", "p05", "p06", "p07", "p08", "p09", "p10", "p11", "p12"}
	for i := 0; i < n && i < len(ids); i++ {
		attrs := core.ProductAttributes{ProductID: ids[i], CategoryID: "sneakers", Price: 99, Tags: []string{"running"}}
		if err := src.PutProduct(ctx, attrs); err != nil {
			t.Fatalf("seed product failed: %v", err)
		}
	}
}

func TestService_ColdUserGetsResults(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 3)

	result, err := svc.GetRecommendations(context.Background(), "cold_user", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Cached {
		t.Errorf("expected fresh successful result, got %+v", result)
	}
	if len(result.Products) == 0 {
		t.Errorf("cold user with non-empty catalog must get results")
	}
}

// TestService_SecondCallCached 第二次相同请求命中缓存，列表完全一致。
func TestService_SecondCallCached(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 5)
	ctx := context.Background()

	first, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 10)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if first.Cached {
		t.Fatal("first call must be a cache miss")
	}

	second, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 10)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call must hit the cache")
	}
	if len(first.Products) != len(second.Products) {
		t.Fatalf("cached list diverged: %v vs %v", first.Products, second.Products)
	}
	for i := range first.Products {
		if first.Products[i] != second.Products[i] {
			t.Errorf("cached list diverged at %d: %v vs %v", i, first.Products[i], second.Products[i])
		}
	}
}

func TestService_InvalidAlgorithm(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetRecommendations(context.Background(), "u1", "PAGERANK", 10)
	if !core.IsInvalidAlgorithm(err) {
		t.Errorf("expected invalid algorithm error, got %v", err)
	}
}

func TestService_EmptyAlgorithmDefaultsToHybrid(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 3)

	result, err := svc.GetRecommendations(context.Background(), "u1", "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Errorf("expected success with default algorithm")
	}
	// 缓存条目应落在 HYBRID 键下
	entry, err := svc.Cache.Get(context.Background(), "u1", core.AlgorithmHybrid)
	if err != nil || entry == nil {
		t.Errorf("expected hybrid cache entry, got %v / %v", entry, err)
	}
}

// TestService_CacheFailureBypassed 缓存后端宕机时请求照常成功，只是不走缓存。
func TestService_CacheFailureBypassed(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	src := source.NewStoreSource(ms)
	seedCatalog(t, src, 3)

	svc := New(src, cache.New(failingStore{}), nil)

	for i := 0; i < 2; i++ {
		result, err := svc.GetRecommendations(context.Background(), "u1", "TRENDING", 10)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if !result.Success || result.Cached {
			t.Errorf("request %d: expected fresh result despite cache outage, got %+v", i, result)
		}
		if len(result.Products) == 0 {
			t.Errorf("request %d: expected products", i)
		}
	}
}

func TestService_LimitClamping(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 12)
	ctx := context.Background()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default when zero", 0, DefaultLimit},
		{"default when negative", -5, DefaultLimit},
		{"explicit small", 3, 3},
		{"capped at max", 500, 12}, // 目录只有 12 个，夹到 50 后全量返回
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetRecommendations(ctx, "u_"+tt.name, "TRENDING", tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Products) != tt.want {
				t.Errorf("limit %d: expected %d products, got %d", tt.limit, tt.want, len(result.Products))
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	if clampLimit(0) != DefaultLimit || clampLimit(-1) != DefaultLimit {
		t.Errorf("non-positive limit must fall back to default")
	}
	if clampLimit(MaxLimit+1) != MaxLimit {
		t.Errorf("limit must be capped at %d", MaxLimit)
	}
	if clampLimit(7) != 7 {
		t.Errorf("in-range limit must pass through")
	}
}

// TestService_CachedEntryTruncatedToLimit 命中缓存时按请求 limit 截断。
func TestService_CachedEntryTruncatedToLimit(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 8)
	ctx := context.Background()

	if _, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 8); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}
	result, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Cached || len(result.Products) != 3 {
		t.Errorf("expected 3 cached products, got %+v", result)
	}
}

// TestService_InvalidateUser 购买后失效个性化缓存，TRENDING 默认保留。
func TestService_InvalidateUser(t *testing.T) {
	svc, src := newTestService(t)
	seedCatalog(t, src, 5)
	ctx := context.Background()

	if _, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 10); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}
	if _, err := svc.GetRecommendations(ctx, "u1", "HYBRID", 10); err != nil {
		t.Fatalf("warmup failed: %v", err)
	}

	if err := src.RecordInteraction(ctx, core.Interaction{
		UserID: "u1", ProductID: "p01", Type: core.InteractionPurchase, Timestamp: time.Now(),
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := svc.InvalidateUser(ctx, "u1"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	trending, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 10)
	if err != nil {
		t.Fatalf("trending failed: %v", err)
	}
	if !trending.Cached {
		t.Errorf("trending entry should survive default invalidation")
	}
	hybrid, err := svc.GetRecommendations(ctx, "u1", "HYBRID", 10)
	if err != nil {
		t.Fatalf("hybrid failed: %v", err)
	}
	if hybrid.Cached {
		t.Errorf("hybrid entry should be recomputed after invalidation")
	}
}

// TestService_RuleFilter 运营规则从结果里剔除命中商品。
func TestService_RuleFilter(t *testing.T) {
	svc, src := newTestService(t)
	ctx := context.Background()

	src.PutProduct(ctx, core.ProductAttributes{ProductID: "p1", CategoryID: "sneakers", Price: 99})
	src.PutProduct(ctx, core.ProductAttributes{ProductID: "p2", CategoryID: "clearance", Price: 5})

	filter, err := rules.NewFilter(`product.category_id == "clearance"`)
	if err != nil {
		t.Fatalf("compile rules failed: %v", err)
	}
	svc.Rules = filter

	result, err := svc.GetRecommendations(ctx, "u1", "TRENDING", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range result.Products {
		if p.ProductID == "p2" {
			t.Errorf("clearance product should be filtered out, got %v", result.Products)
		}
	}
	if len(result.Products) != 1 {
		t.Errorf("expected 1 product after filtering, got %v", result.Products)
	}
}
