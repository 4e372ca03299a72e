package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// nanoMaxRetries 是首次调用之外允许的额外重试次数。
const nanoMaxRetries = 2

// nanoClient 调用 NanoAI 的绘画接口（聊天式 draw 端点）。
type nanoClient struct {
	accessKey  string
	url        string
	httpClient *http.Client

	// backoff 按重试轮次计算等待时长，测试中可替换。
	backoff func(retry int) time.Duration
}

func newNanoClient(cfg ProviderConfig) *nanoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &nanoClient{
		accessKey: cfg.AccessKey,
		url:       cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		backoff: func(retry int) time.Duration {
			// 指数退避：1s、2s、4s…
			return time.Duration(1<<retry) * time.Second
		},
	}
}

type nanoMessageContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type nanoMessage struct {
	Role    string               `json:"role"`
	Content []nanoMessageContent `json:"content"`
}

type nanoDrawRequest struct {
	Messages []nanoMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// nanoImageFields 覆盖 NanoAI 文档未固定的两种图像 URL 命名。
type nanoImageFields struct {
	ImageURLSnake string `json:"image_url"`
	ImageURLCamel string `json:"imageUrl"`
}

func (f nanoImageFields) url() string {
	if f.ImageURLSnake != "" {
		return f.ImageURLSnake
	}
	return f.ImageURLCamel
}

// nanoDrawResponse 是 NanoAI 响应的显式结构：图像 URL 可能出现在顶层，
// 也可能嵌套在 data 或 result 下。
type nanoDrawResponse struct {
	nanoImageFields
	Data   *nanoImageFields `json:"data"`
	Result *nanoImageFields `json:"result"`

	GenerationTimeSnake int64 `json:"generation_time"`
	GenerationTimeCamel int64 `json:"generationTime"`
}

// imageURL 是唯一的提取步骤：依次检查已知结构，全部不命中即为提取失败。
func (r *nanoDrawResponse) imageURL() string {
	if r == nil {
		return ""
	}
	if url := r.nanoImageFields.url(); url != "" {
		return url
	}
	if r.Data != nil {
		if url := r.Data.url(); url != "" {
			return url
		}
	}
	if r.Result != nil {
		if url := r.Result.url(); url != "" {
			return url
		}
	}
	return ""
}

func (r *nanoDrawResponse) generationTime() int64 {
	if r == nil {
		return 0
	}
	if r.GenerationTimeSnake > 0 {
		return r.GenerationTimeSnake
	}
	return r.GenerationTimeCamel
}

// generate 调用 NanoAI 生成图像。可重试的失败（429/5xx、连接失败、TLS 失败）
// 按指数退避最多追加 2 次重试；401/403/404 立即终止并带上诊断信息。
func (c *nanoClient) generate(ctx context.Context, params Params) (*Result, error) {
	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "提示词不能为空"}
	}

	body := nanoDrawRequest{
		Messages: []nanoMessage{
			{
				Role:    "user",
				Content: []nanoMessageContent{{Type: "text", Text: prompt}},
			},
		},
		Stream: false,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("nanoai marshal request: %w", err)
	}

	retries := 0
	for {
		logrus.WithFields(logrus.Fields{
			"attempt":     retries + 1,
			"max_attempt": nanoMaxRetries + 1,
			"url":         c.url,
		}).Info("nanoai_generate_start")

		start := time.Now()
		result, failure := c.attempt(ctx, payload, start)
		if failure == nil {
			logrus.WithFields(logrus.Fields{
				"image_url":       result.Data.ImageURL,
				"generation_time": result.Data.GenerationTime,
			}).Info("nanoai_generate_success")
			return result, nil
		}

		logrus.WithError(failure.cause).WithFields(logrus.Fields{
			"attempt":   retries + 1,
			"code":      failure.diagnostic.Code,
			"retryable": failure.retryable,
		}).Warn("nanoai_generate_attempt_failed")

		if !failure.retryable || retries >= nanoMaxRetries {
			failure.diagnostic.Retries = retries
			failure.diagnostic.Timestamp = time.Now().UTC().Format(time.RFC3339)
			return nil, &providerFailure{diagnostic: failure.diagnostic, cause: failure.cause}
		}

		retries++
		wait := c.backoff(retries)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// nanoAttemptFailure 是单次调用的分类结果。
type nanoAttemptFailure struct {
	diagnostic Diagnostic
	cause      error
	retryable  bool
}

func (c *nanoClient) attempt(ctx context.Context, payload []byte, start time.Time) (*Result, *nanoAttemptFailure) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &nanoAttemptFailure{
			diagnostic: Diagnostic{
				Message:  "请求配置错误",
				Solution: fmt.Sprintf("请检查 NanoAI 的 API 配置。错误详情：%v", err),
			},
			cause: err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &nanoAttemptFailure{
			diagnostic: Diagnostic{
				Message:  "读取 NanoAI 响应失败",
				Solution: "请检查网络连接是否正常",
			},
			cause:     err,
			retryable: true,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp.StatusCode, raw)
	}

	var decoded nanoDrawResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		extractionErr := &ExtractionError{Provider: "nanoai", Message: fmt.Sprintf("响应不是合法 JSON: %v", err)}
		return nil, &nanoAttemptFailure{
			diagnostic: Diagnostic{
				Message:  "无法解析 NanoAI 响应",
				Solution: "服务商返回了未知格式，请联系技术支持",
			},
			cause: extractionErr,
		}
	}

	imageURL := decoded.imageURL()
	if imageURL == "" {
		extractionErr := &ExtractionError{Provider: "nanoai", Message: "无法从响应中提取图像 URL"}
		return nil, &nanoAttemptFailure{
			diagnostic: Diagnostic{
				Message:  "无法从 NanoAI 响应中提取图像 URL",
				Solution: "服务商返回结构发生变化，请更新响应结构定义",
			},
			cause: extractionErr,
		}
	}

	generationTime := decoded.generationTime()
	if generationTime <= 0 {
		generationTime = int64(time.Since(start).Seconds())
	}

	return &Result{
		Success: true,
		Data: ResultData{
			ImageURL:       imageURL,
			GenerationTime: generationTime,
		},
		IsNanoAIData: true,
	}, nil
}

// classifyStatus 按状态码区分可重试与不可重试的失败并给出补救建议。
func (c *nanoClient) classifyStatus(status int, body []byte) *nanoAttemptFailure {
	failure := &nanoAttemptFailure{
		cause: fmt.Errorf("nanoai http %d: %s", status, strings.TrimSpace(string(body))),
	}
	failure.diagnostic.Code = status

	switch status {
	case http.StatusUnauthorized:
		failure.diagnostic.Message = "API认证失败，无法访问 NanoAI 服务"
		failure.diagnostic.Solution = "请检查 API 密钥是否正确，并在环境变量 CUSTOM_AI_ACCESS_KEY 中配置"
	case http.StatusForbidden:
		failure.diagnostic.Message = "没有权限访问 NanoAI API 或 API 密钥已过期"
		failure.diagnostic.Solution = "请确认 NanoAI API 密钥是否有效且未过期"
	case http.StatusNotFound:
		failure.diagnostic.Message = "请求的 NanoAI API 端点不存在"
		failure.diagnostic.Solution = "请检查 CUSTOM_AI_URL 是否为 http://bapi.nanoai.cn/api/v1/draw"
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		failure.diagnostic.Message = "服务器错误或请求超限"
		failure.diagnostic.Solution = "这可能是临时性问题，系统将自动重试"
		failure.retryable = true
	default:
		if status >= 500 {
			failure.diagnostic.Message = "服务器错误或请求超限"
			failure.diagnostic.Solution = "这可能是临时性问题，系统将自动重试"
			failure.retryable = true
		} else {
			failure.diagnostic.Message = fmt.Sprintf("API请求失败，服务器返回错误码：%d", status)
			failure.diagnostic.Solution = "请稍后再试或联系技术支持"
		}
	}
	return failure
}

// classifyTransportError 把连接失败和 TLS 协商失败归类为可重试。
func (c *nanoClient) classifyTransportError(err error) *nanoAttemptFailure {
	failure := &nanoAttemptFailure{cause: err, retryable: true}

	var tlsRecordErr tls.RecordHeaderError
	message := err.Error()
	switch {
	case errors.As(err, &tlsRecordErr),
		strings.Contains(message, "tls:"),
		strings.Contains(strings.ToUpper(message), "SSL"),
		strings.Contains(strings.ToUpper(message), "PROTO"):
		failure.diagnostic.Message = "SSL连接错误"
		failure.diagnostic.Solution = "尝试使用不同的TLS版本或检查API URL"
	default:
		failure.diagnostic.Message = "无法连接到 NanoAI API 服务器"
		failure.diagnostic.Solution = "请检查网络连接是否正常"
	}
	return failure
}
