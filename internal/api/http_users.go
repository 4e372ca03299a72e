package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lingo/internal/auth"
	"lingo/internal/entity"
	"lingo/internal/storage"
)

// maxAvatarSize 头像文件大小上限。
const maxAvatarSize = 5 << 20

var allowedAvatarExts = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"svg":  true,
}

// UploadAvatar 接收 multipart 表单的 avatar 字段，存储后更新用户头像地址。
func (h *HTTPHandler) UploadAvatar(c *gin.Context) {
	user := CurrentUser(c)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		Fail(c, http.StatusBadRequest, "请选择要上传的头像文件")
		return
	}
	if fileHeader.Size > maxAvatarSize {
		Fail(c, http.StatusBadRequest, "头像文件不能超过5MB")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if !allowedAvatarExts[ext] {
		Fail(c, http.StatusBadRequest, "只支持图片文件（jpeg、jpg、png、gif、svg）！")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		FailWithError(c, http.StatusInternalServerError, "头像上传失败，请稍后重试", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		FailWithError(c, http.StatusInternalServerError, "头像上传失败，请稍后重试", err)
		return
	}
	if len(data) > maxAvatarSize {
		Fail(c, http.StatusBadRequest, "头像文件不能超过5MB")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	key, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "avatars",
		BaseName:  strconv.FormatUint(uint64(user.ID), 10),
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to store avatar")
		FailWithError(c, http.StatusInternalServerError, "头像上传失败，请稍后重试", err)
		return
	}

	avatarURL := h.publicURL(key)
	if err := h.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"avatar": avatarURL}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update avatar")
		FailWithError(c, http.StatusInternalServerError, "头像上传失败，请稍后重试", err)
		return
	}
	user.Avatar = avatarURL

	OKMessage(c, "头像上传成功", makeUserProfile(user, true))
}

// UpdateProfile 更新用户名/头像/简介/专长。用户名变化时检查占用。
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updates := map[string]interface{}{}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" && username != user.Username {
			taken, err := h.repo.UserExists(ctx, username, "", user.ID)
			if err != nil {
				FailWithError(c, http.StatusInternalServerError, "更新用户信息失败，请稍后重试", err)
				return
			}
			if taken {
				Fail(c, http.StatusBadRequest, "用户名已被使用")
				return
			}
			updates["username"] = username
			user.Username = username
		}
	}
	if req.Avatar != nil && strings.TrimSpace(*req.Avatar) != "" {
		updates["avatar"] = *req.Avatar
		user.Avatar = *req.Avatar
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
		user.Bio = *req.Bio
	}
	if req.Specialties != nil {
		updates["specialties"] = *req.Specialties
		user.Specialties = *req.Specialties
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateUser(ctx, user.ID, updates); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update user")
			FailWithError(c, http.StatusInternalServerError, "更新用户信息失败，请稍后重试", err)
			return
		}
	}

	OKMessage(c, "用户信息更新成功", makeUserProfile(user, true))
}

// ChangePassword 验证当前密码后更换密码。
func (h *HTTPHandler) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "请提供当前密码和新密码")
		return
	}

	if err := auth.ComparePassword(user.PasswordHash, req.CurrentPassword); err != nil {
		Fail(c, http.StatusUnauthorized, "当前密码错误")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		Fail(c, http.StatusBadRequest, "新密码不符合要求")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to change password")
		FailWithError(c, http.StatusInternalServerError, "修改密码失败，请稍后重试", err)
		return
	}

	OKMessage(c, "密码修改成功", nil)
}

// Stats 返回当前用户的用量统计。
func (h *HTTPHandler) Stats(c *gin.Context) {
	user := CurrentUser(c)
	OK(c, user.Usage)
}

// UpdateSubscription 切换订阅档位，这里不涉及任何支付流程。
func (h *HTTPHandler) UpdateSubscription(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.SubscriptionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "无效的订阅类型")
		return
	}
	if !entity.ValidSubscription(req.Subscription) {
		Fail(c, http.StatusBadRequest, "无效的订阅类型")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, user.ID, map[string]interface{}{"subscription": req.Subscription}); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update subscription")
		FailWithError(c, http.StatusInternalServerError, "更新订阅失败，请稍后重试", err)
		return
	}
	user.Subscription = req.Subscription

	OKMessage(c, "订阅更新成功", makeUserProfile(user, true))
}
