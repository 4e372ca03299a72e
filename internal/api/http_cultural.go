package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lingo/internal/ai"
	"lingo/internal/entity"
)

// CulturalGenerate 生成一张文创产品设计图并入库。
func (h *HTTPHandler) CulturalGenerate(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.CulturalProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "产品类型和设计主题不能为空")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	payload, err := h.generationService.GenerateCulturalWork(ctx, user, req)
	if err != nil {
		h.respondGenerationError(c, err, "文创产品设计生成失败，请稍后重试")
		return
	}

	OKMessage(c, "文创产品设计生成成功", payload)
}

// RecommendSalesPlan 根据目标受众推荐销售方案，纯规则匹配，不走模型。
func (h *HTTPHandler) RecommendSalesPlan(c *gin.Context) {
	var req entity.SalesPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "目标受众不能为空")
		return
	}

	OKMessage(c, "销售方案推荐成功", ai.RecommendSalesPlan(req))
}

// CulturalProductTypes 文创产品载体目录。
func (h *HTTPHandler) CulturalProductTypes(c *gin.Context) {
	OK(c, []entity.OptionItem{
		{Value: "tshirt", Label: "T恤"},
		{Value: "mug", Label: "马克杯"},
		{Value: "poster", Label: "海报"},
		{Value: "bag", Label: "手提袋"},
		{Value: "notebook", Label: "笔记本"},
		{Value: "phonecase", Label: "手机壳"},
		{Value: "puzzle", Label: "拼图"},
		{Value: "sticker", Label: "贴纸"},
		{Value: "ornament", Label: "装饰品"},
		{Value: "other", Label: "其他"},
	})
}

// PatternTypes 纹样类型目录。
func (h *HTTPHandler) PatternTypes(c *gin.Context) {
	OK(c, []entity.OptionItem{
		{Value: "geometric", Label: "几何图案"},
		{Value: "floral", Label: "花卉纹样"},
		{Value: "animal", Label: "动物纹样"},
		{Value: "calligraphy", Label: "文字设计"},
		{Value: "abstract", Label: "抽象纹样"},
		{Value: "traditional", Label: "传统纹样"},
		{Value: "modern", Label: "现代纹样"},
		{Value: "minimalist", Label: "简约纹样"},
		{Value: "cartoon", Label: "卡通纹样"},
		{Value: "other", Label: "其他纹样"},
	})
}
