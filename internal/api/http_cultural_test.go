package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lingo/internal/entity"
)

func culturalRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	group := r.Group("/api/generator/cultural-product")
	group.POST("/generate", h.AuthMiddleware(), h.CulturalGenerate)
	group.POST("/recommend-sales-plan", h.AuthMiddleware(), h.RecommendSalesPlan)
	group.GET("/types", h.CulturalProductTypes)
	group.GET("/pattern-types", h.PatternTypes)
	return r
}

func TestCulturalCatalogs(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := culturalRouter(h)

	t.Run("产品类型目录", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/generator/cultural-product/types", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		data := decodeEnvelope(t, w)["data"].([]any)
		if len(data) != 10 {
			t.Errorf("expected 10 product types, got %d", len(data))
		}
		first := data[0].(map[string]any)
		if first["value"] != "tshirt" || first["label"] != "T恤" {
			t.Errorf("unexpected first product type: %v", first)
		}
	})

	t.Run("纹样类型目录", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/generator/cultural-product/pattern-types", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		data := decodeEnvelope(t, w)["data"].([]any)
		if len(data) != 10 {
			t.Errorf("expected 10 pattern types, got %d", len(data))
		}
	})
}

func TestCulturalGenerate(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": 0, "data": {"image_url": "https://cdn.example.com/cultural.png"}}`))
	}))
	defer provider.Close()

	cfg := testConfig(t)
	cfg.LiblibURL = provider.URL

	repo := newFakeRepo()
	h := newTestHandler(t, cfg, repo)
	router := culturalRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "designer",
		Email:        "designer@example.com",
		Subscription: entity.SubscriptionFree,
	})

	t.Run("缺少必填字段返回400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/generator/cultural-product/generate", token, gin.H{
			"productType": "mug",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("生成成功并落库", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/generator/cultural-product/generate", token, gin.H{
			"productType": "mug",
			"theme":       "敦煌飞天",
			"style":       "traditional",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		response := decodeEnvelope(t, w)
		if response["message"] != "文创产品设计生成成功" {
			t.Errorf("unexpected message: %v", response["message"])
		}
		data := response["data"].(map[string]any)
		if data["designImage"] != "https://cdn.example.com/cultural.png" {
			t.Errorf("unexpected design image: %v", data["designImage"])
		}
		details := data["designDetails"].(map[string]any)
		if details["productType"] != "mug" || details["theme"] != "敦煌飞天" {
			t.Errorf("unexpected design details: %v", details)
		}
		if len(repo.works) != 1 {
			t.Fatalf("expected one persisted work, got %d", len(repo.works))
		}
	})

	t.Run("配额耗尽返回403", func(t *testing.T) {
		exhausted := seedUser(t, h, repo, &entity.DbUser{
			Username:     "exhausted",
			Email:        "exhausted@example.com",
			Subscription: entity.SubscriptionFree,
			Usage:        entity.Usage{Generations: entity.FreeTierGenerationLimit},
		})
		w := doJSON(router, http.MethodPost, "/api/generator/cultural-product/generate", exhausted, gin.H{
			"productType": "mug",
			"theme":       "敦煌飞天",
		})
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", w.Code)
		}
	})
}

func TestRecommendSalesPlanEndpoint(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := culturalRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username: "planner",
		Email:    "planner@example.com",
	})

	t.Run("缺少目标受众返回400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/generator/cultural-product/recommend-sales-plan", token, gin.H{
			"productType": "mug",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	tests := []struct {
		name          string
		audience      string
		expectedTitle string
	}{
		{name: "年轻人匹配线上方案", audience: "一线城市年轻人", expectedTitle: "线上电商主导方案"},
		{name: "旅游人群匹配线下方案", audience: "旅游爱好者", expectedTitle: "线下文创店+旅游景区方案"},
		{name: "企业客户匹配定制方案", audience: "企业采购", expectedTitle: "企业定制+批量销售方案"},
		{name: "无匹配回落首个方案", audience: "银发族", expectedTitle: "线上电商主导方案"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/api/generator/cultural-product/recommend-sales-plan", token, gin.H{
				"productType":    "mug",
				"designTheme":    "敦煌飞天",
				"targetAudience": tt.audience,
			})
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			data := decodeEnvelope(t, w)["data"].(map[string]any)
			plan := data["recommendedPlan"].(map[string]any)
			if plan["title"] != tt.expectedTitle {
				t.Errorf("expected plan %q, got %v", tt.expectedTitle, plan["title"])
			}
			alternatives := data["alternativePlans"].([]any)
			if len(alternatives) != 2 {
				t.Errorf("expected 2 alternative plans, got %d", len(alternatives))
			}
		})
	}
}
