package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lingo/internal/ai"
	"lingo/internal/entity"
	"lingo/internal/service"
)

// Generate 执行一次图像生成。兼容新旧两种请求格式。
func (h *HTTPHandler) Generate(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	// 生成链路含多轮重试和二次兜底，超时放宽到分钟级。
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	payload, err := h.generationService.GenerateWork(ctx, user, req)
	if err != nil {
		h.respondGenerationError(c, err, "生成失败，请稍后重试")
		return
	}

	OKMessage(c, "作品生成成功", payload)
}

// History 当前用户的生成历史，含未公开作品。
func (h *HTTPHandler) History(c *gin.Context) {
	user := CurrentUser(c)

	var params entity.BaseParams
	if err := c.ShouldBindQuery(&params); err != nil {
		Fail(c, http.StatusBadRequest, "无效的查询参数")
		return
	}
	if params.PageSize <= 0 {
		params.PageSize = 10
	}

	query := entity.WorkQuery{
		BaseParams: params,
		CreatorID:  user.ID,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	works, meta, err := h.repo.ListWorks(ctx, &query)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to list history")
		FailWithError(c, http.StatusInternalServerError, "获取历史记录失败，请稍后重试", err)
		return
	}

	OK(c, entity.WorkListPayload{
		Works:      makeWorkViews(works),
		Pagination: meta,
	})
}

// respondGenerationError 把生成链路的错误翻译成对外响应。
func (h *HTTPHandler) respondGenerationError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrGenerationQuotaExceeded) {
		Fail(c, http.StatusForbidden, "免费用户每月生成次数已达上限")
		return
	}
	var validationErr *ai.ValidationError
	if errors.As(err, &validationErr) {
		Fail(c, http.StatusBadRequest, validationErr.Message)
		return
	}
	logrus.WithError(err).Error("generation failed")
	FailWithError(c, http.StatusInternalServerError, fallback, err)
}

// Styles 可选艺术风格目录。
func (h *HTTPHandler) Styles(c *gin.Context) {
	OK(c, []entity.OptionItem{
		{Value: "traditional", Label: "传统艺术"},
		{Value: "modern", Label: "现代艺术"},
		{Value: "ink", Label: "水墨画"},
		{Value: "minimalist", Label: "极简主义"},
		{Value: "abstract", Label: "抽象艺术"},
		{Value: "realistic", Label: "写实风格"},
		{Value: "anime", Label: "动漫风格"},
		{Value: "portrait", Label: "肖像风格"},
		{Value: "landscape", Label: "风景风格"},
		{Value: "other", Label: "其他风格"},
	})
}

// Templates 生成参数预设目录。
func (h *HTTPHandler) Templates(c *gin.Context) {
	OK(c, []entity.Template{
		{
			UUID:        "5d7e67009b344550bc1aa6ccbfa1d7f4",
			Name:        "人像艺术",
			Description: "适用于生成高质量人像艺术作品",
			RecommendedParams: entity.TemplateParams{
				AspectRatio: "portrait",
				ImageSize:   entity.ImageSize{Width: 768, Height: 1024},
				Steps:       30,
			},
		},
		{
			UUID:        "6e8f7811ac455661cd2bb7ddcfb2e8f5",
			Name:        "风景摄影",
			Description: "适用于生成自然风景摄影作品",
			RecommendedParams: entity.TemplateParams{
				AspectRatio: "landscape",
				ImageSize:   entity.ImageSize{Width: 1024, Height: 768},
				Steps:       35,
			},
		},
		{
			UUID:        "7f9g8922bd566772de3cc8eeadf3f9g6",
			Name:        "抽象艺术",
			Description: "适用于生成创意抽象艺术作品",
			RecommendedParams: entity.TemplateParams{
				AspectRatio: "square",
				ImageSize:   entity.ImageSize{Width: 1024, Height: 1024},
				Steps:       40,
			},
		},
	})
}

// ControlNetTypes 构图控制方式目录。
func (h *HTTPHandler) ControlNetTypes(c *gin.Context) {
	OK(c, []entity.OptionItem{
		{Value: "none", Label: "无ControlNet"},
		{Value: "depth", Label: "深度控制"},
		{Value: "canny", Label: "边缘检测"},
		{Value: "pose", Label: "姿态控制"},
		{Value: "seg", Label: "语义分割"},
		{Value: "hed", Label: "边缘细节"},
	})
}

// AspectRatios 画幅比例目录，带推荐尺寸。
func (h *HTTPHandler) AspectRatios(c *gin.Context) {
	OK(c, []entity.AspectRatioOption{
		{Value: "portrait", Label: "竖版 3:4", RecommendedSize: entity.ImageSize{Width: 768, Height: 1024}},
		{Value: "landscape", Label: "横版 4:3", RecommendedSize: entity.ImageSize{Width: 1024, Height: 768}},
		{Value: "square", Label: "方形 1:1", RecommendedSize: entity.ImageSize{Width: 1024, Height: 1024}},
		{Value: "widescreen", Label: "宽屏 16:9", RecommendedSize: entity.ImageSize{Width: 1280, Height: 720}},
		{Value: "ultrawide", Label: "超宽屏 21:9", RecommendedSize: entity.ImageSize{Width: 1920, Height: 864}},
	})
}

// Models 可用模型目录。
func (h *HTTPHandler) Models(c *gin.Context) {
	OK(c, ai.AvailableModels())
}
