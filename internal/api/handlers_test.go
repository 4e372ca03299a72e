package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lingo/internal/config"
	"lingo/internal/entity"
	"lingo/internal/storage"
)

// fakeRepo 内存版仓储，供 handler 测试使用。
type fakeRepo struct {
	users      map[uint]*entity.DbUser
	works      map[uint]*entity.DbWork
	likes      map[uint]map[uint]bool
	nextUserID uint
	nextWorkID uint

	lastWorkQuery *entity.WorkQuery
	listResult    []entity.DbWork
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[uint]*entity.DbUser{},
		works: map[uint]*entity.DbWork{},
		likes: map[uint]map[uint]bool{},
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, user *entity.DbUser) error {
	r.nextUserID++
	user.ID = r.nextUserID
	r.users[user.ID] = user
	return nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, id uint, updates map[string]interface{}) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if avatar, ok := updates["avatar"].(string); ok {
		user.Avatar = avatar
	}
	if username, ok := updates["username"].(string); ok {
		user.Username = username
	}
	return nil
}

// GetUserByID 返回副本，模拟真实仓储每次查询都是一行新数据。
func (r *fakeRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UserExists(_ context.Context, username, email string, excludeID uint) (bool, error) {
	for _, user := range r.users {
		if user.ID == excludeID {
			continue
		}
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) IncrementGenerations(_ context.Context, id uint) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Usage.Generations++
	return nil
}

func (r *fakeRepo) CreateWork(_ context.Context, work *entity.DbWork) error {
	r.nextWorkID++
	work.ID = r.nextWorkID
	r.works[work.ID] = work
	return nil
}

func (r *fakeRepo) GetWorkByID(_ context.Context, id uint) (*entity.DbWork, error) {
	work, ok := r.works[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *work
	return &copied, nil
}

func (r *fakeRepo) ListWorks(_ context.Context, params *entity.WorkQuery) ([]entity.DbWork, *entity.Meta, error) {
	r.lastWorkQuery = params
	return r.listResult, &entity.Meta{
		Page:     1,
		PageSize: params.PageSize,
		Total:    int64(len(r.listResult)),
		Pages:    1,
	}, nil
}

func (r *fakeRepo) UpdateWork(_ context.Context, id uint, updates map[string]interface{}) error {
	work, ok := r.works[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if title, ok := updates["title"].(string); ok {
		work.Title = title
	}
	if isPublic, ok := updates["is_public"].(bool); ok {
		work.IsPublic = isPublic
	}
	return nil
}

func (r *fakeRepo) DeleteWork(_ context.Context, id uint) error {
	if _, ok := r.works[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.works, id)
	return nil
}

func (r *fakeRepo) IncrementWorkViews(_ context.Context, id uint) error {
	work, ok := r.works[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	work.Views++
	return nil
}

func (r *fakeRepo) ToggleWorkLike(_ context.Context, workID, userID uint) (bool, int64, error) {
	if _, ok := r.works[workID]; !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	if r.likes[workID] == nil {
		r.likes[workID] = map[uint]bool{}
	}
	liked := !r.likes[workID][userID]
	if liked {
		r.likes[workID][userID] = true
	} else {
		delete(r.likes[workID], userID)
	}
	return liked, int64(len(r.likes[workID])), nil
}

func (r *fakeRepo) PopularWorks(_ context.Context, _ int) ([]entity.DbWork, error) {
	return r.listResult, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		StorageType:          "local",
		StorageLocalDir:      t.TempDir(),
		StoragePublicBaseURL: "/uploads",
		JWTSecret:            "handler-test-secret",
		JWTIssuer:            "lingo",
		JWTExpirationMinutes: 60,
		NanoAIAccessKey:      "nano-key",
		NanoAIURL:            "http://127.0.0.1:0/draw",
		LiblibAccessKey:      "liblib-key",
		LiblibSecretKey:      "liblib-secret",
		LiblibURL:            "http://127.0.0.1:0/text2img",
	}
}

func newTestHandler(t *testing.T, cfg config.Config, repo *fakeRepo) *HTTPHandler {
	t.Helper()
	store, err := storage.NewStorage(cfg)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	handler, err := NewHTTPHandler(cfg, repo, store)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return handler
}

// seedUser 写入一个已知密码哈希的用户并返回其令牌。
func seedUser(t *testing.T, h *HTTPHandler, repo *fakeRepo, user *entity.DbUser) string {
	t.Helper()
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, _, err := h.authManager.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func doJSON(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return payload
}

func init() {
	gin.SetMode(gin.TestMode)
}
