package api

import (
	"strings"
	"time"

	"lingo/internal/ai"
	"lingo/internal/auth"
	"lingo/internal/config"
	"lingo/internal/model"
	"lingo/internal/service"
	"lingo/internal/storage"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager

	// 服务层
	gateway           *ai.Gateway
	generationService *service.GenerationService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	gateway := ai.NewGateway(ai.ConfigFromApp(cfg))

	return &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		gateway:           gateway,
		generationService: service.NewGenerationService(repo, gateway),
	}, nil
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/uploads"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}
