package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lingo/internal/entity"
)

// CulturalDesign 是文创产品图样生成的结果。
type CulturalDesign struct {
	DesignImage    string `json:"designImage"`
	DesignPrompt   string `json:"designPrompt"`
	GenerationTime int64  `json:"generationTime"`
	ProductType    string `json:"productType"`
	Theme          string `json:"theme"`
	Style          string `json:"style"`
	ColorScheme    string `json:"colorScheme"`
	PatternType    string `json:"patternType"`
	IsMockData     bool   `json:"isMockData,omitempty"`
}

// GenerateCulturalProductDesign 按产品类型和主题拼装中文提示词，
// 以方形 1024x1024 调 Liblib 生成文创图样。
func (g *Gateway) GenerateCulturalProductDesign(ctx context.Context, req entity.CulturalProductRequest) (*CulturalDesign, error) {
	logrus.WithFields(logrus.Fields{
		"product_type": req.ProductType,
		"theme":        req.Theme,
	}).Info("cultural_design_start")

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "设计一个%s的文创产品图样，主题为%s，采用%s风格，", req.ProductType, req.Theme, req.Style)
	fmt.Fprintf(&prompt, "配色方案为%s，使用%s纹样。", req.ColorScheme, req.PatternType)
	if req.AdditionalRequirements != "" {
		fmt.Fprintf(&prompt, " 额外要求：%s", req.AdditionalRequirements)
	}
	prompt.WriteString(" 设计需具有创意性和市场吸引力，适合文创产品使用。")

	style := req.Style
	if style == "" {
		style = "modern"
	}

	// 文创产品图样统一使用方形画幅。
	result, err := g.GenerateImage(ctx, ProviderLiblib, Params{
		Prompt:      prompt.String(),
		Style:       style,
		AspectRatio: "square",
		ImageSize:   &entity.ImageSize{Width: 1024, Height: 1024},
		Steps:       30,
	})
	if err != nil {
		return nil, err
	}

	return &CulturalDesign{
		DesignImage:    result.Data.ImageURL,
		DesignPrompt:   prompt.String(),
		GenerationTime: result.Data.GenerationTime,
		ProductType:    req.ProductType,
		Theme:          req.Theme,
		Style:          req.Style,
		ColorScheme:    req.ColorScheme,
		PatternType:    req.PatternType,
		IsMockData:     result.IsMockData,
	}, nil
}

// SalesPlan 是一套销售方案模板。
type SalesPlan struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Channels            []string `json:"channels"`
	MarketingStrategies []string `json:"marketingStrategies"`
	PricingStrategy     string   `json:"pricingStrategy"`
	EstimatedROI        string   `json:"estimatedROI"`
	SuitableFor         string   `json:"suitableFor"`
}

// SalesSuggestions 按四个维度给出具体建议。
type SalesSuggestions struct {
	ProductOptimization []string `json:"productOptimization"`
	MarketingTiming     []string `json:"marketingTiming"`
	PricingTips         []string `json:"pricingTips"`
	CustomerEngagement  []string `json:"customerEngagement"`
}

// RecommendedSalesPlan 是推荐结果：选中的方案加详细建议。
type RecommendedSalesPlan struct {
	SalesPlan
	DetailedSuggestions SalesSuggestions `json:"detailedSuggestions"`
}

// SalesPlanRecommendation 是销售方案推荐的完整响应。
type SalesPlanRecommendation struct {
	RecommendedPlan  RecommendedSalesPlan `json:"recommendedPlan"`
	AlternativePlans []SalesPlan          `json:"alternativePlans"`
	TargetAudience   string               `json:"targetAudience"`
	ProductType      string               `json:"productType"`
	DesignTheme      string               `json:"designTheme"`
}

func salesPlanTemplates() []SalesPlan {
	return []SalesPlan{
		{
			Title:               "线上电商主导方案",
			Description:         "针对年轻消费群体，以电商平台为主要销售渠道，结合社交媒体营销",
			Channels:            []string{"淘宝", "京东", "拼多多", "小红书", "抖音"},
			MarketingStrategies: []string{"KOL合作", "短视频推广", "直播带货", "限时折扣"},
			PricingStrategy:     "中等定价，突出性价比",
			EstimatedROI:        "6-8个月回本",
			SuitableFor:         "年轻人、学生群体",
		},
		{
			Title:               "线下文创店+旅游景区方案",
			Description:         "针对旅游人群和艺术爱好者，结合线下实体门店和旅游景区销售",
			Channels:            []string{"文创实体店", "旅游景区商店", "博物馆合作", "艺术集市"},
			MarketingStrategies: []string{"景区合作推广", "文化体验活动", "限量版设计"},
			PricingStrategy:     "中高定价，突出文化价值",
			EstimatedROI:        "8-12个月回本",
			SuitableFor:         "旅游人群、艺术爱好者",
		},
		{
			Title:               "企业定制+批量销售方案",
			Description:         "针对企业客户，提供定制化服务和批量采购优惠",
			Channels:            []string{"企业定制", "礼品公司合作", "B2B平台"},
			MarketingStrategies: []string{"企业拜访", "样品展示", "批量折扣"},
			PricingStrategy:     "批量定价，量大从优",
			EstimatedROI:        "4-6个月回本",
			SuitableFor:         "企业客户、礼品市场",
		},
	}
}

// RecommendSalesPlan 按目标受众的关键词匹配预置销售方案，匹配不到时回落到首个方案。
// 纯内存推荐逻辑，不发起任何网络请求。
func RecommendSalesPlan(req entity.SalesPlanRequest) *SalesPlanRecommendation {
	plans := salesPlanTemplates()
	audience := req.TargetAudience

	var picked SalesPlan
	switch {
	case strings.Contains(audience, "年轻人") || strings.Contains(audience, "学生"):
		picked = plans[0]
	case strings.Contains(audience, "旅游") || strings.Contains(audience, "艺术"):
		picked = plans[1]
	case strings.Contains(audience, "企业") || strings.Contains(audience, "礼品"):
		picked = plans[2]
	default:
		picked = plans[0]
	}

	alternatives := make([]SalesPlan, 0, len(plans)-1)
	for _, plan := range plans {
		if plan.Title != picked.Title {
			alternatives = append(alternatives, plan)
		}
	}

	return &SalesPlanRecommendation{
		RecommendedPlan: RecommendedSalesPlan{
			SalesPlan:           picked,
			DetailedSuggestions: generateSalesSuggestions(req.ProductType, req.DesignTheme),
		},
		AlternativePlans: alternatives,
		TargetAudience:   req.TargetAudience,
		ProductType:      req.ProductType,
		DesignTheme:      req.DesignTheme,
	}
}

// generateSalesSuggestions 按产品类型和设计主题填充建议模板。
func generateSalesSuggestions(productType, designTheme string) SalesSuggestions {
	return SalesSuggestions{
		ProductOptimization: []string{
			fmt.Sprintf("针对%s的特点，建议设计2-3种不同尺寸或款式以满足不同需求", productType),
			fmt.Sprintf("结合%s主题，可以开发系列化产品，形成产品矩阵", designTheme),
			"考虑添加个性化定制选项，如刻字、印图等，提高产品附加值",
		},
		MarketingTiming: []string{
			fmt.Sprintf("建议在%s相关的节日或活动期间推出，如文化节、艺术节等", designTheme),
			"新品上市初期可以举办线上线下结合的推广活动",
			"每季度更新一次设计，保持产品新鲜感",
		},
		PricingTips: []string{
			"建议设置不同价位段，覆盖更多消费群体",
			"可以考虑推出限时优惠或组合套餐，提高客单价",
			"高端款式可以采用预售模式，降低库存风险",
		},
		CustomerEngagement: []string{
			"建立社交媒体粉丝群，定期与用户互动，收集反馈",
			"举办设计征集活动，让用户参与产品设计",
			"提供优质的售后服务，提高用户满意度和复购率",
		},
	}
}
