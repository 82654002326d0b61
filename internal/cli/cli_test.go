package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/model"
	"gopkg.in/yaml.v3"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveSecrets(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		apiKey    string
		env       map[string]string
		wantKey   string
		wantToken string
	}{
		{
			name:     "provider specific key",
			provider: "gemini",
			env:      map[string]string{"GEMINI_API_KEY": "g", "API_KEY": "generic"},
			wantKey:  "g",
		},
		{
			name:     "generic fallback",
			provider: "openai",
			env:      map[string]string{"API_KEY": "generic"},
			wantKey:  "generic",
		},
		{
			name:     "configured key wins",
			provider: "anthropic",
			apiKey:   "from-config",
			env:      map[string]string{"ANTHROPIC_API_KEY": "env"},
			wantKey:  "from-config",
		},
		{
			name:      "github token",
			provider:  "gemini",
			env:       map[string]string{"GITHUB_TOKEN": "ghp"},
			wantToken: "ghp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConfig()
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = tt.apiKey

			resolveSecrets(cfg, envMap(tt.env))

			if cfg.LLM.APIKey != tt.wantKey {
				t.Errorf("APIKey = %q, want %q", cfg.LLM.APIKey, tt.wantKey)
			}
			if cfg.GitHub.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", cfg.GitHub.Token, tt.wantToken)
			}
		})
	}
}

func TestResolveSecrets_OllamaBaseURL(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"

	resolveSecrets(cfg, envMap(map[string]string{"OLLAMA_BASE_URL": "http://gpu:11434"}))

	if cfg.LLM.BaseURL != "http://gpu:11434" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
}

func TestReportName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/spf13/cobra", "spf13_cobra"},
		{"https://github.com/spf13/cobra/", "spf13_cobra"},
		{"not a url", "not-a-url"},
	}

	for _, tt := range tests {
		if got := reportName(tt.url); got != tt.want {
			t.Errorf("reportName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	got := sanitizeFilename(strings.Repeat("a", 150))
	if len(got) != 100 {
		t.Errorf("len = %d, want 100", len(got))
	}
}

func TestSanitizeFilename_KeepsRunesWhole(t *testing.T) {
	// 99 ASCII bytes then a 3-byte rune straddling the limit
	got := sanitizeFilename(strings.Repeat("a", 99) + "語語")
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if got != strings.Repeat("a", 99) {
		t.Errorf("expected the straddling rune to be dropped, got %q", got)
	}

	got = sanitizeFilename(strings.Repeat("語", 40))
	if !utf8.ValidString(got) || len(got) > 100 {
		t.Errorf("unexpected result %q (len %d)", got, len(got))
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("provider = %q", cfg.LLM.Provider)
	}
	if cfg.HTTP.Timeout != model.DefaultConfig().HTTP.Timeout {
		t.Errorf("timeout = %v", cfg.HTTP.Timeout)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestShowConfig_HidesSecrets(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-very-secret"
	cfg.GitHub.Token = "ghp_secret"

	var buf bytes.Buffer
	if err := showConfig(&buf, cfg); err != nil {
		t.Fatalf("showConfig: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "sk-very-secret") || strings.Contains(out, "ghp_secret") {
		t.Error("secret leaked into config output")
	}
	if !strings.Contains(out, "llm api key:   set") {
		t.Errorf("missing key presence line:\n%s", out)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	observe := progress(&buf)

	pending := model.NewPendingFeature(0, model.FeatureClaim{Claim: "Fast"})
	passed := pending
	passed.Verdict = model.VerdictPass

	observe(model.Snapshot{Stage: model.StageIdle})
	observe(model.Snapshot{Stage: model.StageExtractingFeatures})
	observe(model.Snapshot{Stage: model.StageVerifying, Report: &model.Report{Features: []model.Feature{pending}}})
	observe(model.Snapshot{Stage: model.StageVerifying, Report: &model.Report{Features: []model.Feature{passed}}})
	observe(model.Snapshot{Stage: model.StageComplete, Report: &model.Report{Features: []model.Feature{passed}}})

	out := buf.String()
	for _, want := range []string{"Reading README", "Extracted 1 claims", "[1/1] PASS: Fast", "Done in"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "PASS: Fast"); n != 1 {
		t.Errorf("verdict printed %d times, want 1", n)
	}
}

func ollamaServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"llama3","response":"{}","done":true}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func ollamaConfig(baseURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3"
	cfg.LLM.BaseURL = baseURL
	cfg.Cache.Enabled = false
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_ThrottlesModelCallsWithoutResilience(t *testing.T) {
	server := ollamaServer(t, true)
	cfg := ollamaConfig(server.URL)
	cfg.Resilience.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 20
	cfg.RateLimiting.BurstSize = 1

	a, err := newApp(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.provider.Generate(context.Background(), llm.GenerateRequest{Prompt: "x"}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("model calls were not throttled: 3 calls took %v", elapsed)
	}
}

func TestNewApp_ResilienceWrapsProvider(t *testing.T) {
	server := ollamaServer(t, true)
	cfg := ollamaConfig(server.URL)
	cfg.Resilience.Enabled = true

	a, err := newApp(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if _, ok := a.provider.(*llm.ResilientProvider); !ok {
		t.Errorf("expected resilient provider, got %T", a.provider)
	}
	if a.provider.Name() != "ollama" {
		t.Errorf("expected ollama, got %s", a.provider.Name())
	}
}

func TestPreflight(t *testing.T) {
	for _, healthy := range []bool{true, false} {
		server := ollamaServer(t, healthy)
		a, err := newApp(context.Background(), ollamaConfig(server.URL), quietLogger())
		if err != nil {
			t.Fatalf("newApp: %v", err)
		}

		err = a.preflight(context.Background())
		if healthy && err != nil {
			t.Errorf("expected healthy backend to pass, got %v", err)
		}
		if !healthy && model.KindOf(err) != model.KindConfig {
			t.Errorf("expected config error for unavailable backend, got %v", err)
		}
	}
}
