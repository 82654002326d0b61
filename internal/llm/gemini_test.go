package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/slopscore/internal/model"
)

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-pro:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Expected x-goog-api-key test-key, got %s", r.Header.Get("x-goog-api-key"))
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("API key must not be sent in the query string")
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "sys" {
			t.Errorf("Expected system instruction, got %+v", req.SystemInstruction)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("Expected JSON mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}
		if req.GenerationConfig.ResponseSchema["type"] != "OBJECT" {
			t.Errorf("Expected OBJECT schema type, got %v", req.GenerationConfig.ResponseSchema["type"])
		}

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"a\":"}, {"text": "1}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
			"modelVersion": "gemini-2.5-pro-001"
		}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), GenerateRequest{
		System: "sys",
		Prompt: "readme",
		Schema: &Schema{Type: "object"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != `{"a":1}` {
		t.Errorf("Expected joined parts, got %q", resp.Text)
	}
	if resp.TokensUsed != 15 {
		t.Errorf("Expected 15 tokens, got %d", resp.TokensUsed)
	}
	if resp.Model != "gemini-2.5-pro-001" {
		t.Errorf("Expected model version, got %s", resp.Model)
	}
}

func TestGeminiProvider_Generate_MissingKey(t *testing.T) {
	provider, _ := NewGeminiProvider(Config{})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("Expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected env var hint, got %v", err)
	}
}

func TestGeminiProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	provider, _ := NewGeminiProvider(Config{APIKey: "bad", BaseURL: server.URL, Timeout: 5})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "PERMISSION_DENIED") {
		t.Fatalf("Expected permission error, got %v", err)
	}
}

func TestGeminiProvider_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	provider, _ := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error for empty candidates")
	}
}

func TestGeminiProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1beta/models" && r.Header.Get("x-goog-api-key") == "test-key" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	good, _ := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if !good.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	bad, _ := NewGeminiProvider(Config{APIKey: "other", BaseURL: server.URL})
	if bad.IsAvailable(context.Background()) {
		t.Error("Expected available to be false for rejected key")
	}
}

func TestGeminiProvider_Generate_OutputCap(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		want      string
	}{
		{"unset sends no cap", 0, ""},
		{"configured cap is sent", 8192, `"maxOutputTokens":8192`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				body = string(raw)
				_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "ok"}]}, "finishReason": "STOP"}]}`))
			}))
			defer server.Close()

			provider, _ := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5, MaxTokens: tt.maxTokens})
			if _, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"}); err != nil {
				t.Fatalf("Generate failed: %v", err)
			}

			if tt.want == "" && strings.Contains(body, "maxOutputTokens") {
				t.Errorf("Expected no maxOutputTokens, got %s", body)
			}
			if tt.want != "" && !strings.Contains(body, tt.want) {
				t.Errorf("Expected %s in %s", tt.want, body)
			}
		})
	}
}

func TestGeminiProvider_Generate_FinishReason(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "token limit with empty parts",
			response: `{"candidates": [{"content": {"role": "model"}, "finishReason": "MAX_TOKENS"}]}`,
			want:     "MAX_TOKENS",
		},
		{
			name:     "token limit with partial json",
			response: `{"candidates": [{"content": {"parts": [{"text": "{\"features\": ["}]}, "finishReason": "MAX_TOKENS"}]}`,
			want:     "MAX_TOKENS",
		},
		{
			name:     "safety block",
			response: `{"candidates": [{"content": {"role": "model"}, "finishReason": "SAFETY"}]}`,
			want:     "SAFETY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			provider, _ := NewGeminiProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

			_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Expected error naming %s, got %v", tt.want, err)
			}
		})
	}
}
