package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lingo/internal/api"
	"lingo/internal/config"
	"lingo/internal/model"
	"lingo/internal/storage"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.POST("/logout", httpHandler.AuthMiddleware(), httpHandler.Logout)
	authGroup.GET("/verify", httpHandler.AuthMiddleware(), httpHandler.Verify)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	userGroup := apiGroup.Group("/users")
	userGroup.Use(httpHandler.AuthMiddleware())
	userGroup.POST("/avatar", httpHandler.UploadAvatar)
	userGroup.PUT("/update", httpHandler.UpdateProfile)
	userGroup.PUT("/change-password", httpHandler.ChangePassword)
	userGroup.GET("/stats", httpHandler.Stats)
	userGroup.PUT("/subscription", httpHandler.UpdateSubscription)

	generatorGroup := apiGroup.Group("/generator")
	generatorGroup.POST("/generate", httpHandler.AuthMiddleware(), httpHandler.Generate)
	generatorGroup.GET("/history", httpHandler.AuthMiddleware(), httpHandler.History)
	generatorGroup.GET("/styles", httpHandler.Styles)
	generatorGroup.GET("/templates", httpHandler.Templates)
	generatorGroup.GET("/controlnet-types", httpHandler.ControlNetTypes)
	generatorGroup.GET("/aspect-ratios", httpHandler.AspectRatios)
	generatorGroup.GET("/models", httpHandler.Models)
	generatorGroup.POST("/cultural-product/generate", httpHandler.AuthMiddleware(), httpHandler.CulturalGenerate)
	generatorGroup.POST("/cultural-product/recommend-sales-plan", httpHandler.AuthMiddleware(), httpHandler.RecommendSalesPlan)
	generatorGroup.GET("/cultural-product/types", httpHandler.CulturalProductTypes)
	generatorGroup.GET("/cultural-product/pattern-types", httpHandler.PatternTypes)

	workGroup := apiGroup.Group("/works")
	workGroup.GET("", httpHandler.ListWorks)
	workGroup.GET("/popular/top", httpHandler.PopularWorks)
	workGroup.GET("/:id", httpHandler.GetWork)
	workGroup.PUT("/:id", httpHandler.AuthMiddleware(), httpHandler.UpdateWork)
	workGroup.DELETE("/:id", httpHandler.AuthMiddleware(), httpHandler.DeleteWork)
	workGroup.POST("/:id/like", httpHandler.AuthMiddleware(), httpHandler.LikeWork)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/uploads"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器，生成请求耗时长，读写超时放宽
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  900 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  1200 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
