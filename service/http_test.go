package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rushteam/shoprec/core"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, src := newTestService(t)
	seedCatalog(t, src, 5)

	r := gin.New()
	NewHandler(svc).Register(r)
	return r, svc
}

func doGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_GetRecommendations(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doGet(t, r, "/users/u1/recommendations?algorithm=TRENDING&limit=3")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !result.Success || result.Cached {
		t.Errorf("expected fresh successful result, got %+v", result)
	}
	if len(result.Products) != 3 {
		t.Errorf("expected 3 products, got %d", len(result.Products))
	}
}

func TestHandler_DefaultsApplied(t *testing.T) {
	r, svc := newTestRouter(t)

	// 不带任何参数：默认 HYBRID、默认 limit
	w := doGet(t, r, "/users/u1/recommendations")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	entry, err := svc.Cache.Get(context.Background(), "u1", core.AlgorithmHybrid)
	if err != nil || entry == nil {
		t.Errorf("expected hybrid cache entry after default request, got %v / %v", entry, err)
	}
}

func TestHandler_InvalidAlgorithmIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doGet(t, r, "/users/u1/recommendations?algorithm=PAGERANK")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Errorf("expected error body, got %+v", body)
	}
}

func TestHandler_SecondCallCached(t *testing.T) {
	r, _ := newTestRouter(t)

	doGet(t, r, "/users/u1/recommendations?algorithm=TRENDING")
	w := doGet(t, r, "/users/u1/recommendations?algorithm=TRENDING")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !result.Cached {
		t.Errorf("expected cached result on second request")
	}
}

func TestHandler_BadLimitIgnored(t *testing.T) {
	r, _ := newTestRouter(t)

	// limit 解析失败按 0 处理，走默认值而不是报错
	w := doGet(t, r, "/users/u1/recommendations?algorithm=TRENDING&limit=abc")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with unparsable limit, got %d: %s", w.Code, w.Body.String())
	}
}
