package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lingo/internal/entity"
)

// parseWorkID 解析路径中的作品 ID。
func parseWorkID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Fail(c, http.StatusBadRequest, "无效的作品ID")
		return 0, false
	}
	return uint(id), true
}

func makeWorkView(work *entity.DbWork) entity.WorkView {
	view := entity.WorkView{
		ID:          work.ID,
		Title:       work.Title,
		Description: work.Description,
		ImageURL:    work.ImageURL,
		Style:       work.Style,
		Model:       work.Model,
		Parameters:  work.Parameters,
		Tags:        work.Tags,
		Type:        work.Type,
		IsPublic:    work.IsPublic,
		Views:       work.Views,
		LikesCount:  work.LikesCount(),
		CreatedAt:   work.CreatedAt,
		UpdatedAt:   work.UpdatedAt,
	}
	if work.Creator != nil {
		summary := makeUserSummary(work.Creator)
		view.Creator = &summary
	}
	return view
}

func makeWorkViews(works []entity.DbWork) []entity.WorkView {
	views := make([]entity.WorkView, 0, len(works))
	for i := range works {
		views = append(views, makeWorkView(&works[i]))
	}
	return views
}

// ListWorks 公开作品列表，支持按风格过滤和分页排序。
func (h *HTTPHandler) ListWorks(c *gin.Context) {
	var query entity.WorkQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		Fail(c, http.StatusBadRequest, "无效的查询参数")
		return
	}
	query.PublicOnly = true
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	works, meta, err := h.repo.ListWorks(ctx, &query)
	if err != nil {
		logrus.WithError(err).Error("failed to list works")
		FailWithError(c, http.StatusInternalServerError, "获取作品列表失败，请稍后重试", err)
		return
	}

	OK(c, entity.WorkListPayload{
		Works:      makeWorkViews(works),
		Pagination: meta,
	})
}

// GetWork 作品详情，每次读取都累计一次浏览量。
func (h *HTTPHandler) GetWork(c *gin.Context) {
	id, ok := parseWorkID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	work, err := h.repo.GetWorkByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusNotFound, "作品不存在")
			return
		}
		FailWithError(c, http.StatusInternalServerError, "获取作品详情失败，请稍后重试", err)
		return
	}

	if err := h.repo.IncrementWorkViews(ctx, id); err != nil {
		logrus.WithError(err).WithField("work_id", id).Warn("failed to increment views")
	} else {
		work.Views++
	}

	OK(c, makeWorkView(work))
}

// UpdateWork 仅限创建者修改标题/描述/标签/公开状态。
func (h *HTTPHandler) UpdateWork(c *gin.Context) {
	user := CurrentUser(c)
	id, ok := parseWorkID(c)
	if !ok {
		return
	}

	var req entity.WorkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	work, err := h.repo.GetWorkByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusNotFound, "作品不存在")
			return
		}
		FailWithError(c, http.StatusInternalServerError, "更新作品失败，请稍后重试", err)
		return
	}
	if work.CreatorID != user.ID {
		Fail(c, http.StatusForbidden, "无权修改此作品")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil && *req.Title != "" {
		updates["title"] = *req.Title
		work.Title = *req.Title
	}
	if req.Description != nil && *req.Description != "" {
		updates["description"] = *req.Description
		work.Description = *req.Description
	}
	if req.Tags != nil {
		updates["tags"] = *req.Tags
		work.Tags = *req.Tags
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
		work.IsPublic = *req.IsPublic
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateWork(ctx, id, updates); err != nil {
			logrus.WithError(err).WithField("work_id", id).Error("failed to update work")
			FailWithError(c, http.StatusInternalServerError, "更新作品失败，请稍后重试", err)
			return
		}
		work.UpdatedAt = time.Now()
	}

	OKMessage(c, "作品更新成功", makeWorkView(work))
}

// DeleteWork 仅限创建者删除。
func (h *HTTPHandler) DeleteWork(c *gin.Context) {
	user := CurrentUser(c)
	id, ok := parseWorkID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	work, err := h.repo.GetWorkByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusNotFound, "作品不存在")
			return
		}
		FailWithError(c, http.StatusInternalServerError, "删除作品失败，请稍后重试", err)
		return
	}
	if work.CreatorID != user.ID {
		Fail(c, http.StatusForbidden, "无权删除此作品")
		return
	}

	if err := h.repo.DeleteWork(ctx, id); err != nil {
		logrus.WithError(err).WithField("work_id", id).Error("failed to delete work")
		FailWithError(c, http.StatusInternalServerError, "删除作品失败，请稍后重试", err)
		return
	}

	OKMessage(c, "作品删除成功", nil)
}

// LikeWork 点赞开关：已点赞则取消，未点赞则点赞。
func (h *HTTPHandler) LikeWork(c *gin.Context) {
	user := CurrentUser(c)
	id, ok := parseWorkID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	liked, likesCount, err := h.repo.ToggleWorkLike(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusNotFound, "作品不存在")
			return
		}
		logrus.WithError(err).WithField("work_id", id).Error("failed to toggle like")
		FailWithError(c, http.StatusInternalServerError, "点赞操作失败，请稍后重试", err)
		return
	}

	message := "取消点赞成功"
	if liked {
		message = "点赞成功"
	}
	OKMessage(c, message, gin.H{"likesCount": likesCount})
}

// PopularWorks 热门作品，按点赞数和浏览量排序。
func (h *HTTPHandler) PopularWorks(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	works, err := h.repo.PopularWorks(ctx, limit)
	if err != nil {
		logrus.WithError(err).Error("failed to list popular works")
		FailWithError(c, http.StatusInternalServerError, "获取热门作品失败，请稍后重试", err)
		return
	}

	OK(c, makeWorkViews(works))
}
