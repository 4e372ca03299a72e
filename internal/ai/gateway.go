package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Gateway 是图像生成的统一入口：按 providerID 做二元静态分发，
// 重试耗尽后按各服务商配置的兜底策略兜底。
type Gateway struct {
	cfg    Config
	nano   *nanoClient
	liblib *liblibClient
}

func NewGateway(cfg Config) *Gateway {
	return &Gateway{
		cfg:    cfg,
		nano:   newNanoClient(cfg.Nano),
		liblib: newLiblibClient(cfg.Liblib),
	}
}

// GenerateImage 生成一张图像。providerID 为 custom_ai 时走 NanoAI，
// 其余值一律走 Liblib。空提示词在发起任何网络请求前拒绝。
func (g *Gateway) GenerateImage(ctx context.Context, providerID string, params Params) (*Result, error) {
	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "提示词不能为空"}
	}
	params.Prompt = prompt

	logrus.WithFields(logrus.Fields{
		"provider": providerID,
		"style":    params.Style,
		"steps":    params.Steps,
	}).Info("generate_image_start")

	if providerID == ProviderNano {
		result, err := g.nano.generate(ctx, params)
		if err == nil {
			return result, nil
		}
		return g.applyFallback(ctx, g.cfg.Nano.Fallback, params, err)
	}

	result, err := g.callLiblib(ctx, params.Prompt, liblibOptionsFromParams(params))
	if err == nil {
		return result, nil
	}
	return g.applyFallback(ctx, g.cfg.Liblib.Fallback, params, err)
}

// callLiblib 调 Liblib 并把图像 URL 包装成统一结果，生成耗时按墙钟秒数计。
func (g *Gateway) callLiblib(ctx context.Context, prompt string, opts liblibOptions) (*Result, error) {
	start := time.Now()
	imageURL, err := g.liblib.generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		Success: true,
		Data: ResultData{
			ImageURL:       imageURL,
			GenerationTime: int64(time.Since(start).Seconds()),
		},
	}, nil
}

// applyFallback 执行配置声明的兜底策略。上下文取消和参数校验失败不兜底。
func (g *Gateway) applyFallback(ctx context.Context, policy FallbackPolicy, params Params, cause error) (*Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var validationErr *ValidationError
	if errors.As(cause, &validationErr) {
		return nil, cause
	}

	logrus.WithError(cause).WithField("policy", string(policy)).Warn("generate_image_fallback")

	switch policy {
	case FallbackRetryGeneric:
		// 先用通用提示词再给 Liblib 一次机会，仍失败才返回占位结果。
		result, err := g.callLiblib(ctx, liblibGenericPrompt, liblibOptions{
			Width:  768,
			Height: 1024,
			Steps:  30,
		})
		if err == nil {
			return result, nil
		}
		logrus.WithError(err).Warn("generate_image_generic_retry_failed")
		return &Result{
			Success: true,
			Data: ResultData{
				ImageURL:       mockCulturalImageURL,
				GenerationTime: 5,
			},
			IsMockData: true,
		}, nil

	case FallbackMockResult:
		fallthrough
	default:
		return &Result{
			Success: true,
			Data: ResultData{
				ImageURL:       mockImageURL,
				GenerationTime: int64(rand.Intn(10) + 5),
			},
			IsMockData: true,
			ErrorInfo:  diagnosticFromError(cause),
		}, nil
	}
}

// diagnosticFromError 提取失败携带的诊断信息，缺失时合成一条通用诊断。
func diagnosticFromError(err error) *Diagnostic {
	var failure *providerFailure
	if errors.As(err, &failure) {
		diag := failure.diagnostic
		return &diag
	}
	return &Diagnostic{
		Message:   fmt.Sprintf("图像生成失败: %v", err),
		Solution:  "请稍后再试或联系技术支持",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func liblibOptionsFromParams(params Params) liblibOptions {
	opts := liblibOptions{
		Steps: params.Steps,
		Model: params.Model,
	}
	if params.ImageSize != nil {
		opts.Width = params.ImageSize.Width
		opts.Height = params.ImageSize.Height
	} else {
		size := defaultImageSize()
		opts.Width = size.Width
		opts.Height = size.Height
	}
	if opts.Steps <= 0 {
		opts.Steps = 30
	}
	return opts
}

// ModelCapabilities 描述某个模型支持的参数面。
type ModelCapabilities struct {
	Templates    bool `json:"templates"`
	Controlnet   bool `json:"controlnet,omitempty"`
	AspectRatio  bool `json:"aspectRatio"`
	CustomSize   bool `json:"customSize"`
	StepsControl bool `json:"stepsControl"`
	SeedControl  bool `json:"seedControl"`
}

// ModelInfo 是前端模型选择器使用的静态描述。
type ModelInfo struct {
	Value        string            `json:"value"`
	Label        string            `json:"label"`
	Provider     string            `json:"provider"`
	Description  string            `json:"description"`
	Features     []string          `json:"features"`
	Capabilities ModelCapabilities `json:"capabilities"`
}

// AvailableModels 返回可用模型的静态列表，纯内存数据，不发起任何请求。
func AvailableModels() []ModelInfo {
	return []ModelInfo{
		{
			Value:       ProviderNano,
			Label:       "Nanobanana AI 生成器",
			Provider:    "Nanobanana",
			Description: "高性能AI图像生成服务，基于先进的扩散模型，支持多种参数定制",
			Features: []string{
				"高质量图像",
				"多种艺术风格",
				"模板支持",
				"ControlNet功能",
				"自定义宽高比和尺寸",
				"生成步数控制",
				"引导尺度调节",
				"随机种子设置",
			},
			Capabilities: ModelCapabilities{
				Templates:    true,
				Controlnet:   true,
				AspectRatio:  true,
				CustomSize:   true,
				StepsControl: true,
				SeedControl:  true,
			},
		},
		{
			Value:       ProviderLiblib,
			Label:       "Libilibi AI 生成器",
			Provider:    "Libilibi",
			Description: "专业级AI图像生成服务，提供高质量、多样化的图像生成能力",
			Features: []string{
				"高清图像生成",
				"丰富的艺术风格",
				"快速响应速度",
				"灵活的参数配置",
				"稳定的服务性能",
				"支持多种分辨率",
				"强大的提示词理解能力",
			},
			Capabilities: ModelCapabilities{
				Templates:   true,
				AspectRatio: true,
				CustomSize:  true,
			},
		},
	}
}
