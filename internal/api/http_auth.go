package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lingo/internal/auth"
	"lingo/internal/entity"
)

func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请提供用户名、邮箱和密码")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	exists, err := h.repo.UserExists(ctx, username, email, 0)
	if err != nil {
		logrus.WithError(err).Error("failed to check user existence")
		FailWithError(c, http.StatusInternalServerError, "注册失败，请稍后重试", err)
		return
	}
	if exists {
		Fail(c, http.StatusBadRequest, "用户已存在")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		FailWithError(c, http.StatusInternalServerError, "注册失败，请稍后重试", err)
		return
	}

	userType := strings.TrimSpace(req.UserType)
	if userType == "" {
		userType = entity.UserTypeCreator
	}

	user := &entity.DbUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Avatar:       entity.DefaultAvatarURL,
		UserType:     userType,
		Subscription: entity.SubscriptionFree,
		Usage:        entity.Usage{LastReset: time.Now()},
	}

	if err := h.repo.CreateUser(ctx, user); err != nil {
		logrus.WithError(err).Error("failed to create user")
		FailWithError(c, http.StatusInternalServerError, "注册失败，请稍后重试", err)
		return
	}

	token, _, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to create token for user")
		FailWithError(c, http.StatusInternalServerError, "注册失败，请稍后重试", err)
		return
	}

	Created(c, "注册成功", entity.AuthPayload{
		Token: token,
		User:  makeUserSummary(user),
	})
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请提供邮箱和密码")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByEmail(ctx, email)
	if err != nil {
		logrus.WithError(err).WithField("email", email).Warn("login attempt failed")
		Fail(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		logrus.WithField("email", email).Warn("password verification failed")
		Fail(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	now := time.Now()
	if err := h.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}
	user.LastLogin = &now

	token, _, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		FailWithError(c, http.StatusInternalServerError, "登录失败，请稍后重试", err)
		return
	}

	OKMessage(c, "登录成功", entity.AuthPayload{
		Token: token,
		User:  makeUserSummary(user),
	})
}

// Logout 令牌是无状态的，清除动作由客户端完成。
func (h *HTTPHandler) Logout(c *gin.Context) {
	OKMessage(c, "登出成功", nil)
}

// Verify 校验当前令牌并返回用户信息（不含用量）。
func (h *HTTPHandler) Verify(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Fail(c, http.StatusUnauthorized, "token无效或已过期")
		return
	}
	OK(c, gin.H{"user": makeUserProfile(user, false)})
}

// Me 返回当前用户的完整视图，包含用量和时间戳。
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Fail(c, http.StatusUnauthorized, "token无效或已过期")
		return
	}
	OK(c, makeUserProfile(user, true))
}

func makeUserSummary(user *entity.DbUser) entity.UserSummary {
	if user == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Avatar:       user.Avatar,
		UserType:     user.UserType,
		Subscription: user.Subscription,
	}
}

func makeUserProfile(user *entity.DbUser, includeUsage bool) entity.UserProfile {
	if user == nil {
		return entity.UserProfile{}
	}
	profile := entity.UserProfile{
		UserSummary: makeUserSummary(user),
		Bio:         user.Bio,
		Specialties: user.Specialties,
	}
	if includeUsage {
		usage := user.Usage
		profile.Usage = &usage
		createdAt := user.CreatedAt
		profile.CreatedAt = &createdAt
		profile.LastLogin = user.LastLogin
	}
	return profile
}
