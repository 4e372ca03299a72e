package ai

import "fmt"

// ValidationError 表示调用方给出的参数在发起任何网络请求之前就被拒绝。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation error"
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProviderError 表示服务商接受了请求但返回业务层面的拒绝。
type ProviderError struct {
	Provider string
	Code     int
	Message  string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	return fmt.Sprintf("%s provider error (code %d): %s", e.Provider, e.Code, e.Message)
}

// ExtractionError 表示服务商响应体不符合任何已知的结构，解码按关闭失败处理。
type ExtractionError struct {
	Provider string
	Message  string
}

func (e *ExtractionError) Error() string {
	if e == nil {
		return "extraction error"
	}
	return fmt.Sprintf("%s response extraction failed: %s", e.Provider, e.Message)
}

// Diagnostic 描述一次失败的原因、补救方法和重试情况，随模拟结果返回给调用方。
type Diagnostic struct {
	Message   string `json:"message"`
	Solution  string `json:"solution"`
	Code      int    `json:"code,omitempty"`
	Retries   int    `json:"retries"`
	Timestamp string `json:"timestamp"`
}

// providerFailure 承载带诊断信息的终态失败，供网关构造 ErrorInfo。
type providerFailure struct {
	diagnostic Diagnostic
	cause      error
}

func (e *providerFailure) Error() string {
	if e == nil {
		return "provider failure"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s (%v)", e.diagnostic.Message, e.cause)
	}
	return e.diagnostic.Message
}

func (e *providerFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}
