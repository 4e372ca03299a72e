package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lingo/internal/entity"
)

func generatorRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	group := r.Group("/api/generator")
	group.POST("/generate", h.AuthMiddleware(), h.Generate)
	group.GET("/history", h.AuthMiddleware(), h.History)
	group.GET("/styles", h.Styles)
	group.GET("/templates", h.Templates)
	group.GET("/controlnet-types", h.ControlNetTypes)
	group.GET("/aspect-ratios", h.AspectRatios)
	group.GET("/models", h.Models)
	return r
}

func TestGeneratorCatalogs(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := generatorRouter(h)

	tests := []struct {
		name     string
		path     string
		expected int
	}{
		{name: "风格目录", path: "/api/generator/styles", expected: 10},
		{name: "模板目录", path: "/api/generator/templates", expected: 3},
		{name: "ControlNet目录", path: "/api/generator/controlnet-types", expected: 6},
		{name: "画幅目录", path: "/api/generator/aspect-ratios", expected: 5},
		{name: "模型目录", path: "/api/generator/models", expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodGet, tt.path, "", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			data := decodeEnvelope(t, w)["data"].([]any)
			if len(data) != tt.expected {
				t.Errorf("expected %d entries, got %d", tt.expected, len(data))
			}
		})
	}

	t.Run("模板带推荐参数", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/generator/templates", "", nil)
		data := decodeEnvelope(t, w)["data"].([]any)
		first := data[0].(map[string]any)
		if first["uuid"] != "5d7e67009b344550bc1aa6ccbfa1d7f4" {
			t.Errorf("unexpected first template uuid: %v", first["uuid"])
		}
		params := first["recommendedParams"].(map[string]any)
		if params["aspectRatio"] != "portrait" {
			t.Errorf("expected portrait aspect ratio, got %v", params["aspectRatio"])
		}
		size := params["imageSize"].(map[string]any)
		if size["width"] != float64(768) || size["height"] != float64(1024) {
			t.Errorf("unexpected recommended size: %v", size)
		}
	})

	t.Run("画幅目录带推荐尺寸", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/generator/aspect-ratios", "", nil)
		data := decodeEnvelope(t, w)["data"].([]any)
		var widescreen map[string]any
		for _, raw := range data {
			entry := raw.(map[string]any)
			if entry["value"] == "widescreen" {
				widescreen = entry
			}
		}
		if widescreen == nil {
			t.Fatal("expected widescreen entry")
		}
		size := widescreen["recommendedSize"].(map[string]any)
		if size["width"] != float64(1280) || size["height"] != float64(720) {
			t.Errorf("unexpected widescreen size: %v", size)
		}
	})
}

func TestGenerateQuotaExceeded(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := generatorRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "heavy-user",
		Email:        "heavy@example.com",
		Subscription: entity.SubscriptionFree,
		Usage:        entity.Usage{Generations: entity.FreeTierGenerationLimit},
	})

	w := doJSON(router, http.MethodPost, "/api/generator/generate", token, gin.H{
		"prompt": "一只猫",
	})

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", w.Code, w.Body.String())
	}
	if response := decodeEnvelope(t, w); response["message"] != "免费用户每月生成次数已达上限" {
		t.Errorf("unexpected message: %v", response["message"])
	}
	if len(repo.works) != 0 {
		t.Error("expected no work to be persisted when quota is exhausted")
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := generatorRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "creator1",
		Email:        "creator1@example.com",
		Subscription: entity.SubscriptionFree,
	})

	w := doJSON(router, http.MethodPost, "/api/generator/generate", token, gin.H{
		"prompt": "   ",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if response := decodeEnvelope(t, w); response["message"] != "提示词不能为空" {
		t.Errorf("unexpected message: %v", response["message"])
	}
}

func TestGenerateSuccess(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"image_url": "https://cdn.example.com/generated.png"}`))
	}))
	defer provider.Close()

	cfg := testConfig(t)
	cfg.NanoAIURL = provider.URL

	repo := newFakeRepo()
	h := newTestHandler(t, cfg, repo)
	router := generatorRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "creator1",
		Email:        "creator1@example.com",
		Subscription: entity.SubscriptionFree,
		Usage:        entity.Usage{Generations: 10},
	})

	w := doJSON(router, http.MethodPost, "/api/generator/generate", token, gin.H{
		"prompt": "水墨山水",
		"style":  "ink",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	response := decodeEnvelope(t, w)
	if response["message"] != "作品生成成功" {
		t.Errorf("unexpected message: %v", response["message"])
	}
	data := response["data"].(map[string]any)
	if data["imageUrl"] != "https://cdn.example.com/generated.png" {
		t.Errorf("unexpected image url: %v", data["imageUrl"])
	}
	if data["remainingCount"] != float64(39) {
		t.Errorf("expected remaining count 39, got %v", data["remainingCount"])
	}

	if len(repo.works) != 1 {
		t.Fatalf("expected one persisted work, got %d", len(repo.works))
	}
	for _, work := range repo.works {
		if work.IsPublic {
			t.Error("expected generated work to be private by default")
		}
		if work.Style != "ink" {
			t.Errorf("unexpected work style: %q", work.Style)
		}
	}
	if repo.users[1].Usage.Generations != 11 {
		t.Errorf("expected generation counter 11, got %d", repo.users[1].Usage.Generations)
	}
}

func TestHistoryScopedToUser(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := generatorRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username: "creator1",
		Email:    "creator1@example.com",
	})

	w := doJSON(router, http.MethodGet, "/api/generator/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if repo.lastWorkQuery == nil {
		t.Fatal("expected History to hit the repository")
	}
	if repo.lastWorkQuery.CreatorID != 1 {
		t.Errorf("expected creator filter 1, got %d", repo.lastWorkQuery.CreatorID)
	}
	if repo.lastWorkQuery.PublicOnly {
		t.Error("expected history to include private works")
	}
	if repo.lastWorkQuery.PageSize != 10 {
		t.Errorf("expected default page size 10, got %d", repo.lastWorkQuery.PageSize)
	}
}
