package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lingo/internal/auth"
	"lingo/internal/entity"
)

func usersRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	group := r.Group("/api/users")
	group.Use(h.AuthMiddleware())
	group.POST("/avatar", h.UploadAvatar)
	group.PUT("/update", h.UpdateProfile)
	group.PUT("/change-password", h.ChangePassword)
	group.GET("/stats", h.Stats)
	group.PUT("/subscription", h.UpdateSubscription)
	return r
}

func uploadAvatar(router http.Handler, token, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("avatar", filename)
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/users/avatar", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAvatar(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := usersRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username: "creator1",
		Email:    "creator1@example.com",
		Avatar:   entity.DefaultAvatarURL,
	})

	t.Run("上传成功并更新头像", func(t *testing.T) {
		w := uploadAvatar(router, token, "me.png", []byte("png-bytes"))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		response := decodeEnvelope(t, w)
		if response["message"] != "头像上传成功" {
			t.Errorf("unexpected message: %v", response["message"])
		}
		avatar := repo.users[1].Avatar
		if !strings.HasPrefix(avatar, "/uploads/avatars/") {
			t.Errorf("expected avatar under /uploads/avatars/, got %q", avatar)
		}
		if !strings.HasSuffix(avatar, ".png") {
			t.Errorf("expected png extension, got %q", avatar)
		}
	})

	t.Run("非图片扩展名被拒绝", func(t *testing.T) {
		w := uploadAvatar(router, token, "script.exe", []byte("nope"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		if response := decodeEnvelope(t, w); response["message"] != "只支持图片文件（jpeg、jpg、png、gif、svg）！" {
			t.Errorf("unexpected message: %v", response["message"])
		}
	})

	t.Run("缺少文件返回400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/users/avatar", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := usersRouter(h)

	tokenA := seedUser(t, h, repo, &entity.DbUser{Username: "alpha", Email: "alpha@example.com"})
	seedUser(t, h, repo, &entity.DbUser{Username: "beta", Email: "beta@example.com"})

	t.Run("用户名被占用返回400", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/update", tokenA, gin.H{"username": "beta"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		if response := decodeEnvelope(t, w); response["message"] != "用户名已被使用" {
			t.Errorf("unexpected message: %v", response["message"])
		}
	})

	t.Run("更新成功", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/update", tokenA, gin.H{"username": "gamma"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if repo.users[1].Username != "gamma" {
			t.Errorf("expected stored username gamma, got %q", repo.users[1].Username)
		}
	})
}

func TestChangePassword(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := usersRouter(h)

	hash, err := auth.HashPassword("oldpassword")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "creator1",
		Email:        "creator1@example.com",
		PasswordHash: hash,
	})

	t.Run("当前密码错误返回401", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/change-password", token, gin.H{
			"currentPassword": "wrong",
			"newPassword":     "newpassword123",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", w.Code)
		}
		if response := decodeEnvelope(t, w); response["message"] != "当前密码错误" {
			t.Errorf("unexpected message: %v", response["message"])
		}
	})

	t.Run("修改成功", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/change-password", token, gin.H{
			"currentPassword": "oldpassword",
			"newPassword":     "newpassword123",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestStatsAndSubscription(t *testing.T) {
	repo := newFakeRepo()
	h := newTestHandler(t, testConfig(t), repo)
	router := usersRouter(h)

	token := seedUser(t, h, repo, &entity.DbUser{
		Username:     "creator1",
		Email:        "creator1@example.com",
		Subscription: entity.SubscriptionFree,
		Usage:        entity.Usage{Generations: 12, Storage: 1024},
	})

	t.Run("用量统计", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/users/stats", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		data := decodeEnvelope(t, w)["data"].(map[string]any)
		if data["generations"] != float64(12) {
			t.Errorf("expected 12 generations, got %v", data["generations"])
		}
	})

	t.Run("非法订阅类型返回400", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/subscription", token, gin.H{"subscription": "platinum"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		if response := decodeEnvelope(t, w); response["message"] != "无效的订阅类型" {
			t.Errorf("unexpected message: %v", response["message"])
		}
	})

	t.Run("订阅升级成功", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/users/subscription", token, gin.H{"subscription": entity.SubscriptionPremium})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}
