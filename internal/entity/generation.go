package entity

// ImageSize 描述生成图像的像素尺寸。
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ControlNet 描述可选的构图控制参数。
type ControlNet struct {
	ControlType string  `json:"controlType"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
}

// GenerateParams 是新版生成请求的结构化参数。
type GenerateParams struct {
	Prompt      string      `json:"prompt"`
	Style       string      `json:"style"`
	Complexity  int         `json:"complexity"`
	Color       string      `json:"color"`
	Model       string      `json:"model"`
	AspectRatio string      `json:"aspectRatio"`
	ImageSize   *ImageSize  `json:"imageSize,omitempty"`
	Steps       int         `json:"steps"`
	Controlnet  *ControlNet `json:"controlnet,omitempty"`
}

// GenerateRequest 兼容新旧两种请求格式：要么携带 generateParams，
// 要么直接在顶层平铺 prompt/style/complexity/color/model。
type GenerateRequest struct {
	TemplateUUID   string          `json:"templateUuid"`
	GenerateParams *GenerateParams `json:"generateParams,omitempty"`

	Prompt     string `json:"prompt"`
	Style      string `json:"style"`
	Complexity int    `json:"complexity"`
	Color      string `json:"color"`
	Model      string `json:"model"`
}

// GeneratePayload 是生成成功后的响应体。
type GeneratePayload struct {
	WorkID         uint   `json:"workId"`
	ImageURL       string `json:"imageUrl"`
	GenerationTime int64  `json:"generationTime"`
	RemainingCount int64  `json:"remainingCount"`
}

// CulturalProductRequest 是文创产品图样生成请求。
type CulturalProductRequest struct {
	ProductType            string `json:"productType" binding:"required"`
	Theme                  string `json:"theme" binding:"required"`
	Style                  string `json:"style"`
	ColorScheme            string `json:"colorScheme"`
	PatternType            string `json:"patternType"`
	AdditionalRequirements string `json:"additionalRequirements"`
}

// SalesPlanRequest 是销售方案推荐请求。
type SalesPlanRequest struct {
	ProductType          string `json:"productType"`
	DesignTheme          string `json:"designTheme"`
	TargetAudience       string `json:"targetAudience" binding:"required"`
	Budget               string `json:"budget"`
	DistributionChannels string `json:"distributionChannels"`
}

// OptionItem 是下拉选项（风格、纹样等静态目录）的通用条目。
type OptionItem struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AspectRatioOption 携带推荐尺寸的比例选项。
type AspectRatioOption struct {
	Value           string    `json:"value"`
	Label           string    `json:"label"`
	RecommendedSize ImageSize `json:"recommendedSize"`
}

// Template 是简化提示词创作的生成参数预设。
type Template struct {
	UUID              string         `json:"uuid"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	RecommendedParams TemplateParams `json:"recommendedParams"`
}

// TemplateParams 是模板推荐的生成参数。
type TemplateParams struct {
	AspectRatio string    `json:"aspectRatio"`
	ImageSize   ImageSize `json:"imageSize"`
	Steps       int       `json:"steps"`
}
