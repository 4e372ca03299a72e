package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lingo/internal/entity"
)

const currentUserContextKey = "current-user"

// AuthMiddleware JWT 认证中间件。令牌优先取 Authorization 头，
// 兼容旧客户端时回落到 token cookie。
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			AbortUnauthorized(c, "未提供认证令牌")
			return
		}

		claims, err := h.authManager.ParseToken(tokenString)
		if err != nil {
			logrus.WithError(err).Warn("failed to parse jwt token")
			AbortUnauthorized(c, "token无效或已过期")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := h.repo.GetUserByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				AbortUnauthorized(c, "用户不存在")
				return
			}
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
				Success: false,
				Message: "验证用户失败",
			})
			return
		}

		c.Set(currentUserContextKey, user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *entity.DbUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*entity.DbUser)
	if !ok {
		return nil
	}
	return user
}
