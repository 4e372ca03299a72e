package ai

import (
	"lingo/internal/config"
	"lingo/internal/entity"
	"strings"
	"time"
)

// 支持的两个服务商，静态分发，不做负载均衡或按成本选路。
const (
	ProviderNano   = "custom_ai"
	ProviderLiblib = "libilibi"
)

// FallbackPolicy 声明某个服务商在重试耗尽后的兜底策略。
// 两个服务商用同一套机制，策略内容在配置里声明。
type FallbackPolicy string

const (
	// FallbackMockResult 直接合成一个标记为模拟数据的占位结果。
	FallbackMockResult FallbackPolicy = "mock_result"
	// FallbackRetryGeneric 先用通用提示词再调一次服务商，仍然失败才返回占位结果。
	FallbackRetryGeneric FallbackPolicy = "retry_generic"
)

// ProviderConfig 是单个服务商的显式配置。
type ProviderConfig struct {
	AccessKey string
	SecretKey string
	URL       string
	Timeout   time.Duration
	Fallback  FallbackPolicy
}

// Config 是注入网关的完整配置，取代环境变量式的全局状态。
type Config struct {
	Nano   ProviderConfig
	Liblib ProviderConfig
}

// ConfigFromApp 从应用配置构建网关配置，带上每个服务商的默认超时和兜底策略。
func ConfigFromApp(cfg config.Config) Config {
	return Config{
		Nano: ProviderConfig{
			AccessKey: strings.TrimSpace(cfg.NanoAIAccessKey),
			URL:       strings.TrimSpace(cfg.NanoAIURL),
			Timeout:   30 * time.Second,
			Fallback:  FallbackMockResult,
		},
		Liblib: ProviderConfig{
			AccessKey: strings.TrimSpace(cfg.LiblibAccessKey),
			SecretKey: strings.TrimSpace(cfg.LiblibSecretKey),
			URL:       strings.TrimSpace(cfg.LiblibURL),
			Timeout:   120 * time.Second,
			Fallback:  FallbackRetryGeneric,
		},
	}
}

// Params 是一次生成调用的全部输入，仅消费一次，不落库。
type Params struct {
	Prompt       string
	Style        string
	Complexity   int
	Color        string
	TemplateUUID string
	AspectRatio  string
	ImageSize    *entity.ImageSize
	Steps        int
	Controlnet   *entity.ControlNet
	// Model 是透传给 Liblib 的底层模型名。
	Model string
}

// ResultData 是生成结果的有效载荷。
type ResultData struct {
	ImageURL       string `json:"imageUrl"`
	GenerationTime int64  `json:"generationTime"`
}

// Result 是网关返回的统一结果。重试与兜底耗尽后 Success 仍为 true，
// 调用方必须检查 IsMockData / IsNanoAIData 区分真实结果与占位结果。
type Result struct {
	Success      bool        `json:"success"`
	Data         ResultData  `json:"data"`
	IsNanoAIData bool        `json:"isNanoAIData,omitempty"`
	IsMockData   bool        `json:"isMockData,omitempty"`
	ErrorInfo    *Diagnostic `json:"errorInfo,omitempty"`
}

const (
	mockImageURL         = "https://via.placeholder.com/768x1024?text=AI+生成图像"
	mockCulturalImageURL = "https://via.placeholder.com/1024x1024?text=AI+文创设计"

	// liblibGenericPrompt 是 retry_generic 策略使用的通用提示词。
	liblibGenericPrompt = "一个美丽的文创设计"
)

func defaultImageSize() entity.ImageSize {
	return entity.ImageSize{Width: 768, Height: 1024}
}
