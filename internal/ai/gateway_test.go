package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGateway(nanoURL, liblibURL string) *Gateway {
	gateway := NewGateway(Config{
		Nano: ProviderConfig{
			AccessKey: "nano-key",
			URL:       nanoURL,
			Timeout:   5 * time.Second,
			Fallback:  FallbackMockResult,
		},
		Liblib: ProviderConfig{
			AccessKey: "liblib-access",
			SecretKey: "liblib-secret",
			URL:       liblibURL,
			Timeout:   5 * time.Second,
			Fallback:  FallbackRetryGeneric,
		},
	})
	gateway.nano.backoff = func(int) time.Duration { return 0 }
	gateway.liblib.backoff = func(int) time.Duration { return 0 }
	return gateway
}

func TestGenerateImageEmptyPromptNoNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, server.URL)
	for _, provider := range []string{ProviderNano, ProviderLiblib} {
		_, err := gateway.GenerateImage(context.Background(), provider, Params{Prompt: ""})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("%s: expected ValidationError, got %v", provider, err)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no HTTP calls, got %d", calls)
	}
}

func TestGenerateImageNanoFallbackMock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL, "http://liblib.invalid")
	result, err := gateway.GenerateImage(context.Background(), ProviderNano, Params{Prompt: "故宫角楼"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected success=true for mock fallback")
	}
	if !result.IsMockData {
		t.Error("expected isMockData=true")
	}
	if result.ErrorInfo == nil {
		t.Fatal("expected errorInfo to be populated")
	}
	if result.ErrorInfo.Retries != nanoMaxRetries {
		t.Errorf("expected %d retries in diagnostic, got %d", nanoMaxRetries, result.ErrorInfo.Retries)
	}
	if result.Data.ImageURL != mockImageURL {
		t.Errorf("unexpected placeholder url %q", result.Data.ImageURL)
	}
}

func TestGenerateImageLiblibGenericRetry(t *testing.T) {
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req liblibRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prompts = append(prompts, req.Prompt)
		if req.Prompt == liblibGenericPrompt {
			w.Write([]byte(`{"code":0,"data":{"url":"https://cdn.example.com/generic.png"}}`))
			return
		}
		w.Write([]byte(`{"code":500,"msg":"服务繁忙"}`))
	}))
	defer server.Close()

	gateway := newTestGateway("http://nano.invalid", server.URL)
	result, err := gateway.GenerateImage(context.Background(), ProviderLiblib, Params{Prompt: "凤凰纹样"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(prompts) != liblibMaxAttempts+1 {
		t.Fatalf("expected %d calls, got %d", liblibMaxAttempts+1, len(prompts))
	}
	for _, prompt := range prompts[:liblibMaxAttempts] {
		if prompt != "凤凰纹样" {
			t.Errorf("expected original prompt, got %q", prompt)
		}
	}
	if prompts[liblibMaxAttempts] != liblibGenericPrompt {
		t.Errorf("expected generic prompt on fallback, got %q", prompts[liblibMaxAttempts])
	}
	if result.IsMockData {
		t.Error("generic retry succeeded, result must not be mock")
	}
	if result.Data.ImageURL != "https://cdn.example.com/generic.png" {
		t.Errorf("unexpected image url %q", result.Data.ImageURL)
	}
}

func TestGenerateImageLiblibFinalMock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"msg":"服务繁忙"}`))
	}))
	defer server.Close()

	gateway := newTestGateway("http://nano.invalid", server.URL)
	result, err := gateway.GenerateImage(context.Background(), ProviderLiblib, Params{Prompt: "凤凰纹样"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success || !result.IsMockData {
		t.Errorf("expected mock success result, got %+v", result)
	}
	if result.Data.ImageURL != mockCulturalImageURL {
		t.Errorf("unexpected placeholder url %q", result.Data.ImageURL)
	}
}

func TestGenerateImageUnknownProviderRoutesToLiblib(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"code":0,"data":{"image_url":"https://cdn.example.com/x.png"}}`))
	}))
	defer server.Close()

	gateway := newTestGateway("http://nano.invalid", server.URL)
	result, err := gateway.GenerateImage(context.Background(), "something_else", Params{Prompt: "测试"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 liblib call, got %d", calls)
	}
	if result.Data.ImageURL != "https://cdn.example.com/x.png" {
		t.Errorf("unexpected image url %q", result.Data.ImageURL)
	}
}

func TestAvailableModels(t *testing.T) {
	models := AvailableModels()
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Value != ProviderNano || models[1].Value != ProviderLiblib {
		t.Errorf("unexpected model ids %q, %q", models[0].Value, models[1].Value)
	}
	if !models[0].Capabilities.Controlnet {
		t.Error("expected controlnet capability on nano model")
	}
	if models[1].Capabilities.SeedControl {
		t.Error("liblib model must not advertise seed control")
	}
}
