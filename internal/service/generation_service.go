package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"lingo/internal/ai"
	"lingo/internal/entity"
	"lingo/internal/model"
)

// ErrGenerationQuotaExceeded 免费用户达到每月生成上限。
var ErrGenerationQuotaExceeded = errors.New("免费用户每月生成次数已达上限")

// GenerationService 图像生成服务，封装配额检查、网关调用和作品落库。
type GenerationService struct {
	repo    model.Repository
	gateway *ai.Gateway
}

// NewGenerationService 创建生成服务实例
func NewGenerationService(repo model.Repository, gateway *ai.Gateway) *GenerationService {
	return &GenerationService{
		repo:    repo,
		gateway: gateway,
	}
}

// checkQuota 在发起任何生成调用前检查免费配额。
// 读到的计数可能在并发请求间过期，这里不做跨请求保护。
func checkQuota(user *entity.DbUser) error {
	if user.IsFreeTier() && user.Usage.Generations >= entity.FreeTierGenerationLimit {
		return ErrGenerationQuotaExceeded
	}
	return nil
}

// remainingAfter 计算本次生成计入后的剩余次数。
func remainingAfter(user *entity.DbUser) int64 {
	if !user.IsFreeTier() {
		return 999
	}
	remaining := int64(entity.FreeTierGenerationLimit) - (user.Usage.Generations + 1)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// resolvedParams 是新旧两种请求格式归一化后的生成参数。
type resolvedParams struct {
	provider string
	params   ai.Params
	style    string
}

// resolveGenerateParams 归一化生成请求：generateParams 优先，
// 旧格式平铺字段兜底并补齐默认值。libilibi 之外的模型名保持原样透传。
func resolveGenerateParams(req entity.GenerateRequest) resolvedParams {
	var (
		prompt, style, color, model, aspectRatio string
		complexity, steps                        int
		imageSize                                *entity.ImageSize
		controlnet                               *entity.ControlNet
	)

	if p := req.GenerateParams; p != nil {
		prompt = p.Prompt
		style = p.Style
		complexity = p.Complexity
		color = p.Color
		model = p.Model
		aspectRatio = p.AspectRatio
		imageSize = p.ImageSize
		steps = p.Steps
		controlnet = p.Controlnet
	} else {
		prompt = req.Prompt
		style = req.Style
		complexity = req.Complexity
		color = req.Color
		model = req.Model
	}

	if style == "" {
		style = "realistic"
	}
	if complexity == 0 {
		complexity = 5
	}
	if color == "" {
		color = "vibrant"
	}
	if aspectRatio == "" {
		aspectRatio = "portrait"
	}
	if imageSize == nil {
		imageSize = &entity.ImageSize{Width: 768, Height: 1024}
	}
	if steps == 0 {
		steps = 30
	}

	provider := model
	if provider == "" {
		provider = ai.ProviderNano
	}

	return resolvedParams{
		provider: provider,
		style:    style,
		params: ai.Params{
			Prompt:       prompt,
			Style:        style,
			Complexity:   complexity,
			Color:        color,
			TemplateUUID: req.TemplateUUID,
			AspectRatio:  aspectRatio,
			ImageSize:    imageSize,
			Steps:        steps,
			Controlnet:   controlnet,
			Model:        model,
		},
	}
}

// GenerateWork 执行一次图像生成：检查配额、调用网关、落库作品并累计用量。
// 新作品默认私有，描述即提示词。
func (s *GenerationService) GenerateWork(ctx context.Context, user *entity.DbUser, req entity.GenerateRequest) (*entity.GeneratePayload, error) {
	if err := checkQuota(user); err != nil {
		return nil, err
	}

	resolved := resolveGenerateParams(req)

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": resolved.provider,
		"template": req.TemplateUUID,
	}).Info("generate_work_start")

	result, err := s.gateway.GenerateImage(ctx, resolved.provider, resolved.params)
	if err != nil {
		return nil, err
	}

	workStyle := resolved.style
	if workStyle == "" {
		workStyle = entity.WorkStyleModern
	}

	parameters := entity.JSONMap{
		"complexity":  resolved.params.Complexity,
		"color":       resolved.params.Color,
		"model":       resolved.provider,
		"aspectRatio": resolved.params.AspectRatio,
		"steps":       resolved.params.Steps,
	}
	if req.TemplateUUID != "" {
		parameters["templateUuid"] = req.TemplateUUID
	}
	if resolved.params.ImageSize != nil {
		parameters["imageSize"] = map[string]interface{}{
			"width":  resolved.params.ImageSize.Width,
			"height": resolved.params.ImageSize.Height,
		}
	}
	if resolved.params.Controlnet != nil {
		parameters["controlnet"] = map[string]interface{}{
			"controlType": resolved.params.Controlnet.ControlType,
			"imageUrl":    resolved.params.Controlnet.ImageURL,
			"weight":      resolved.params.Controlnet.Weight,
		}
	}

	work := &entity.DbWork{
		Title:       fmt.Sprintf("AI生成作品_%d", time.Now().UnixMilli()),
		Description: resolved.params.Prompt,
		CreatorID:   user.ID,
		ImageURL:    result.Data.ImageURL,
		Style:       workStyle,
		Model:       resolved.provider,
		Parameters:  parameters,
		Type:        entity.WorkTypeGeneration,
		IsPublic:    false,
	}
	if err := s.repo.CreateWork(ctx, work); err != nil {
		return nil, fmt.Errorf("保存作品失败: %w", err)
	}

	if err := s.repo.IncrementGenerations(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to increment generation usage")
	}

	return &entity.GeneratePayload{
		WorkID:         work.ID,
		ImageURL:       work.ImageURL,
		GenerationTime: result.Data.GenerationTime,
		RemainingCount: remainingAfter(user),
	}, nil
}

// CulturalDesignDetails 回显文创设计的输入和最终提示词。
type CulturalDesignDetails struct {
	ProductType  string `json:"productType"`
	Theme        string `json:"theme"`
	Style        string `json:"style"`
	ColorScheme  string `json:"colorScheme"`
	PatternType  string `json:"patternType"`
	DesignPrompt string `json:"designPrompt"`
}

// CulturalPayload 是文创图样生成成功后的响应体。
type CulturalPayload struct {
	WorkID         uint                  `json:"workId"`
	DesignImage    string                `json:"designImage"`
	GenerationTime int64                 `json:"generationTime"`
	RemainingCount int64                 `json:"remainingCount"`
	DesignDetails  CulturalDesignDetails `json:"designDetails"`
}

// GenerateCulturalWork 生成文创产品图样并落库为 cultural_product 类型作品。
// 配额与普通生成共用同一份计数。
func (s *GenerationService) GenerateCulturalWork(ctx context.Context, user *entity.DbUser, req entity.CulturalProductRequest) (*CulturalPayload, error) {
	if err := checkQuota(user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"product_type": req.ProductType,
		"theme":        req.Theme,
	}).Info("generate_cultural_work_start")

	design, err := s.gateway.GenerateCulturalProductDesign(ctx, req)
	if err != nil {
		return nil, err
	}

	workStyle := req.Style
	if workStyle == "" {
		workStyle = entity.WorkStyleModern
	}

	work := &entity.DbWork{
		Title:       fmt.Sprintf("%s_%s_%d", req.ProductType, req.Theme, time.Now().UnixMilli()),
		Description: fmt.Sprintf("文创产品设计：%s，主题：%s，风格：%s", req.ProductType, req.Theme, req.Style),
		CreatorID:   user.ID,
		ImageURL:    design.DesignImage,
		Style:       workStyle,
		Model:       ai.ProviderLiblib,
		Parameters: entity.JSONMap{
			"productType":            req.ProductType,
			"theme":                  req.Theme,
			"style":                  req.Style,
			"colorScheme":            req.ColorScheme,
			"patternType":            req.PatternType,
			"additionalRequirements": req.AdditionalRequirements,
		},
		Type:     entity.WorkTypeCulturalProduct,
		IsPublic: false,
	}
	if err := s.repo.CreateWork(ctx, work); err != nil {
		return nil, fmt.Errorf("保存作品失败: %w", err)
	}

	if err := s.repo.IncrementGenerations(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to increment generation usage")
	}

	return &CulturalPayload{
		WorkID:         work.ID,
		DesignImage:    design.DesignImage,
		GenerationTime: design.GenerationTime,
		RemainingCount: remainingAfter(user),
		DesignDetails: CulturalDesignDetails{
			ProductType:  req.ProductType,
			Theme:        req.Theme,
			Style:        req.Style,
			ColorScheme:  req.ColorScheme,
			PatternType:  req.PatternType,
			DesignPrompt: design.DesignPrompt,
		},
	}, nil
}
