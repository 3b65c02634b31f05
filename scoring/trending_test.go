package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

// TestTrendingScorer_TypeWeights 同一时刻购买权重高于浏览。
func TestTrendingScorer_TypeWeights(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		interactions: []core.Interaction{
			{UserID: "u1", ProductID: "p_viewed", Type: core.InteractionView, Timestamp: now},
			{UserID: "u2", ProductID: "p_bought", Type: core.InteractionPurchase, Timestamp: now},
		},
	}
	scorer := &TrendingScorer{Store: src}

	out, err := scorer.Score(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p_bought", "p_viewed"}
	if !equalIDs(productIDs(out), want) {
		t.Errorf("expected %v, got %v", want, productIDs(out))
	}
}

// TestTrendingScorer_RecencyDecay 同类型交互，越新分越高。
func TestTrendingScorer_RecencyDecay(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		interactions: []core.Interaction{
			{UserID: "u1", ProductID: "p_old", Type: core.InteractionView, Timestamp: now.Add(-48 * time.Hour)},
			{UserID: "u2", ProductID: "p_new", Type: core.InteractionView, Timestamp: now.Add(-time.Hour)},
		},
	}
	scorer := &TrendingScorer{Store: src}

	out, err := scorer.Score(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].ProductID != "p_new" {
		t.Errorf("expected p_new ranked first, got %v", productIDs(out))
	}
	if out[0].Score <= out[1].Score {
		t.Errorf("expected decayed score to be strictly lower: %v", out)
	}
}

// TestTrendingScorer_IncludesPurchased 热门榜不做已购过滤。
func TestTrendingScorer_IncludesPurchased(t *testing.T) {
	now := time.Now()
	src := &fakeSource{
		interactions: []core.Interaction{
			{UserID: "u1", ProductID: "p1", Type: core.InteractionPurchase, Timestamp: now},
			{UserID: "u2", ProductID: "p2", Type: core.InteractionView, Timestamp: now},
		},
	}
	scorer := &TrendingScorer{Store: src}

	out, err := scorer.Score(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := productIDs(out)
	found := false
	for _, id := range ids {
		if id == "p1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected purchased p1 to stay in trending, got %v", ids)
	}
}

// TestTrendingScorer_PopularityFallback 时间窗内无交互时退回累计热度计数。
func TestTrendingScorer_PopularityFallback(t *testing.T) {
	src := &fakeSource{
		popularity: map[string]core.PopularityStats{
			"p_hot":  {Views: 1000, Purchases: 50},
			"p_cold": {Views: 10},
		},
		catalog: map[string]core.ProductAttributes{
			"p_hot":  attrs("p_hot", "a", 10),
			"p_cold": attrs("p_cold", "a", 10),
		},
	}
	scorer := &TrendingScorer{Store: src}

	out, err := scorer.Score(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p_hot", "p_cold"}
	if !equalIDs(productIDs(out), want) {
		t.Errorf("expected %v, got %v", want, productIDs(out))
	}
}

// TestTrendingScorer_CatalogFallback 交互与热度全空时退回裸目录，保证非空。
func TestTrendingScorer_CatalogFallback(t *testing.T) {
	src := &fakeSource{
		catalog: map[string]core.ProductAttributes{
			"p2": attrs("p2", "a", 10),
			"p1": attrs("p1", "a", 10),
		},
	}
	scorer := &TrendingScorer{Store: src}

	out, err := scorer.Score(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p1", "p2"}
	if !equalIDs(productIDs(out), want) {
		t.Errorf("expected catalog fallback %v, got %v", want, productIDs(out))
	}
}

// TestTrendingScorer_Limit 截断到 limit。
func TestTrendingScorer_Limit(t *testing.T) {
	catalog := map[string]core.ProductAttributes{}
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		catalog[id] = attrs(id, "a", 10)
	}
	scorer := &TrendingScorer{Store: &fakeSource{catalog: catalog}}

	out, err := scorer.Score(context.Background(), "u1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("expected 3 results, got %d", len(out))
	}
}
