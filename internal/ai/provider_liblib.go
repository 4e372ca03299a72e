package ai

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// liblibMaxAttempts 是 Liblib 的总尝试次数，不按失败类型区分。
const liblibMaxAttempts = 3

// liblibSuccessCode 是 Liblib 响应中表示成功的状态码哨兵。
const liblibSuccessCode = 0

// liblibClient 调用 Liblib 的 text2img 接口，请求以 HMAC-SHA1 签名鉴权。
type liblibClient struct {
	accessKey  string
	secretKey  string
	url        string
	httpClient *http.Client

	// backoff 线性退避，等待时长与尝试次数成正比，测试中可替换。
	backoff func(attempt int) time.Duration
	// now 和 nonce 可在测试中固定以验证签名。
	now   func() time.Time
	nonce func() string
}

func newLiblibClient(cfg ProviderConfig) *liblibClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &liblibClient{
		accessKey:  cfg.AccessKey,
		secretKey:  cfg.SecretKey,
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		},
		now:   time.Now,
		nonce: func() string { return uuid.NewString() },
	}
}

// liblibOptions 是 text2img 的完整参数，零值字段在 normalise 时填默认值。
type liblibOptions struct {
	Width             int
	Height            int
	Steps             int
	CfgScale          float64
	NegativePrompt    string
	SamplerName       string
	Seed              int64
	Model             string
	EnableHR          bool
	HRScale           float64
	HRUpscaler        string
	DenoisingStrength float64
}

func (o liblibOptions) normalise() liblibOptions {
	if o.Width <= 0 {
		o.Width = 512
	}
	if o.Height <= 0 {
		o.Height = 512
	}
	if o.Steps <= 0 {
		o.Steps = 20
	}
	if o.CfgScale <= 0 {
		o.CfgScale = 7
	}
	if o.SamplerName == "" {
		o.SamplerName = "Euler a"
	}
	if o.Seed == 0 {
		o.Seed = -1
	}
	if o.Model == "" {
		o.Model = "liblib_sd15_v1"
	}
	if o.HRScale <= 0 {
		o.HRScale = 2
	}
	if o.HRUpscaler == "" {
		o.HRUpscaler = "Latent"
	}
	if o.DenoisingStrength <= 0 {
		o.DenoisingStrength = 0.7
	}
	return o
}

type liblibRequest struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Steps             int     `json:"steps"`
	BatchSize         int     `json:"batch_size"`
	CfgScale          float64 `json:"cfg_scale"`
	NegativePrompt    string  `json:"negative_prompt"`
	SamplerName       string  `json:"sampler_name"`
	Seed              int64   `json:"seed"`
	Model             string  `json:"model"`
	EnableHR          bool    `json:"enable_hr"`
	HRScale           float64 `json:"hr_scale"`
	HRUpscaler        string  `json:"hr_upscaler"`
	DenoisingStrength float64 `json:"denoising_strength"`
}

type liblibResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// signContent 按固定顺序拼接签名原文：AccessKey、SignatureNonce、Timestamp。
func signContent(accessKey, nonce, timestamp string) string {
	return fmt.Sprintf("AccessKey=%s&SignatureNonce=%s&Timestamp=%s", accessKey, nonce, timestamp)
}

// sign 用 HMAC-SHA1 计算签名并按 URL 安全的 base64（无填充）编码。
func (c *liblibClient) sign(nonce, timestamp string) string {
	mac := hmac.New(sha1.New, []byte(c.secretKey))
	mac.Write([]byte(signContent(c.accessKey, nonce, timestamp)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// signedURL 把签名参数追加为查询字符串。
func (c *liblibClient) signedURL() string {
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	nonce := c.nonce()
	signature := c.sign(nonce, timestamp)

	query := url.Values{}
	query.Set("AccessKey", c.accessKey)
	query.Set("Signature", signature)
	query.Set("Timestamp", timestamp)
	query.Set("SignatureNonce", nonce)

	return c.url + "?" + query.Encode()
}

// generate 调用 Liblib 生成图像并返回图像 URL。固定尝试 3 次，线性退避，
// 耗尽后把最后一次错误抛给调用方（由网关决定兜底策略）。
func (c *liblibClient) generate(ctx context.Context, prompt string, opts liblibOptions) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", &ValidationError{Field: "prompt", Message: "提示词不能为空"}
	}

	opts = opts.normalise()
	var lastErr error

	for attempt := 1; attempt <= liblibMaxAttempts; attempt++ {
		logrus.WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_attempt": liblibMaxAttempts,
		}).Info("liblib_generate_start")

		imageURL, err := c.attempt(ctx, trimmed, opts)
		if err == nil {
			logrus.WithField("image_url", imageURL).Info("liblib_generate_success")
			return imageURL, nil
		}
		lastErr = err

		logrus.WithError(err).WithField("attempt", attempt).Warn("liblib_generate_attempt_failed")

		if attempt == liblibMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	return "", fmt.Errorf("liblib api调用彻底失败: %w", lastErr)
}

func (c *liblibClient) attempt(ctx context.Context, prompt string, opts liblibOptions) (string, error) {
	payload := liblibRequest{
		Prompt:            prompt,
		Width:             opts.Width,
		Height:            opts.Height,
		Steps:             opts.Steps,
		BatchSize:         1,
		CfgScale:          opts.CfgScale,
		NegativePrompt:    opts.NegativePrompt,
		SamplerName:       opts.SamplerName,
		Seed:              opts.Seed,
		Model:             opts.Model,
		EnableHR:          opts.EnableHR,
		HRScale:           opts.HRScale,
		HRUpscaler:        opts.HRUpscaler,
		DenoisingStrength: opts.DenoisingStrength,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("liblib marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signedURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("liblib create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LingoCreate/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("liblib submit request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("liblib read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("liblib http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded liblibResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &ExtractionError{Provider: "liblib", Message: fmt.Sprintf("响应不是合法 JSON: %v", err)}
	}

	// 只认状态码哨兵，HTTP 200 但 code 非 0 仍按服务商拒绝处理。
	if decoded.Code != liblibSuccessCode {
		msg := decoded.Msg
		if msg == "" {
			msg = fmt.Sprintf("API返回错误代码: %d", decoded.Code)
		}
		return "", &ProviderError{Provider: "liblib", Code: decoded.Code, Message: msg}
	}

	return extractLiblibImageURL(decoded.Data)
}

// liblibDataObject 覆盖 data 为对象时的已知字段。
type liblibDataObject struct {
	ImageURL string   `json:"image_url"`
	URL      string   `json:"url"`
	Images   []string `json:"images"`
}

// extractLiblibImageURL 是唯一的提取步骤，依次检查已知结构：
// data.image_url、data.url、data 为 base64 字符串、data.images[0]。
// 全部不命中按关闭失败处理。
func extractLiblibImageURL(data json.RawMessage) (string, error) {
	if len(data) == 0 {
		return "", &ExtractionError{Provider: "liblib", Message: "响应缺少 data 字段"}
	}

	var asObject liblibDataObject
	if err := json.Unmarshal(data, &asObject); err == nil {
		if asObject.ImageURL != "" {
			return asObject.ImageURL, nil
		}
		if asObject.URL != "" {
			return asObject.URL, nil
		}
		if len(asObject.Images) > 0 && asObject.Images[0] != "" {
			return "data:image/png;base64," + asObject.Images[0], nil
		}
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err == nil && asString != "" {
		return "data:image/png;base64," + asString, nil
	}

	return "", &ExtractionError{Provider: "liblib", Message: "API返回成功但未找到图像URL"}
}
