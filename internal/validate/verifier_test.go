package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/slopscore/internal/llm"
	"github.com/ppiankov/slopscore/internal/model"
)

type mockProvider struct {
	text string
	err  error
	last llm.GenerateRequest
}

func (m *mockProvider) Name() string                         { return "mock" }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.text}, nil
}

var testClaim = model.FeatureClaim{
	Claim:                "Ships a CLI",
	Requirement:          "The project provides a command-line entry point",
	VerificationGuidance: "Look for cmd/ or main.go",
}

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("pkg/file%03d.go", i)
	}
	return out
}

func TestVerifier_Verify_Success(t *testing.T) {
	provider := &mockProvider{text: `{"verdict":"PARTIAL","analysis":"cmd/ exists but is empty","notes":"no main package"}`}
	v := NewVerifier(provider, nil)

	got, err := v.Verify(context.Background(), testClaim, []string{"cmd/tool/main.go", "README.md"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if got.Verdict != model.VerdictPartial {
		t.Errorf("Expected PARTIAL, got %s", got.Verdict)
	}
	if got.Notes == nil || *got.Notes != "no main package" {
		t.Errorf("Unexpected notes: %v", got.Notes)
	}
	if !strings.Contains(provider.last.Prompt, testClaim.Requirement) {
		t.Error("Expected requirement in prompt")
	}
	if !strings.Contains(provider.last.Prompt, "cmd/tool/main.go\nREADME.md") {
		t.Error("Expected newline-joined file list in prompt")
	}
}

func TestVerifier_Verify_NullNotes(t *testing.T) {
	v := NewVerifier(&mockProvider{text: `{"verdict":"PASS","analysis":"cmd/tool/main.go","notes":null}`}, nil)

	got, err := v.Verify(context.Background(), testClaim, nil)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got.Notes != nil {
		t.Errorf("Expected nil notes, got %q", *got.Notes)
	}
}

func TestVerifier_Verify_TruncatesFileList(t *testing.T) {
	provider := &mockProvider{text: `{"verdict":"FAIL","analysis":"none","notes":null}`}
	v := NewVerifier(provider, nil)

	files := paths(500)
	if _, err := v.Verify(context.Background(), testClaim, files); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	prompt := provider.last.Prompt
	for i, p := range files {
		included := strings.Contains(prompt, p)
		if i < MaxPromptFiles && !included {
			t.Fatalf("Expected path %d (%s) in prompt", i, p)
		}
		if i >= MaxPromptFiles && included {
			t.Fatalf("Path %d (%s) should not be in prompt", i, p)
		}
	}
	if len(files) != 500 {
		t.Error("Caller's slice must not be modified")
	}
}

func TestVerifier_Verify_ParseErrors(t *testing.T) {
	tests := map[string]string{
		"not json":          "PASS, looks fine",
		"verdict outside":   `{"verdict":"MAYBE","analysis":"x","notes":null}`,
		"pending verdict":   `{"verdict":"PENDING","analysis":"x","notes":null}`,
		"missing analysis":  `{"verdict":"PASS","notes":null}`,
		"missing notes key": `{"verdict":"PASS","analysis":"x"}`,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			v := NewVerifier(&mockProvider{text: text}, nil)

			_, err := v.Verify(context.Background(), testClaim, nil)
			if !errors.Is(err, model.ErrParse) {
				t.Fatalf("Expected parse error, got %v", err)
			}
		})
	}
}

func TestVerifier_Verify_ConfigError(t *testing.T) {
	v := NewVerifier(&mockProvider{err: model.NewError(model.KindConfig, "no key")}, nil)

	_, err := v.Verify(context.Background(), testClaim, nil)
	if !errors.Is(err, model.ErrConfig) {
		t.Fatalf("Expected config error, got %v", err)
	}
}

func TestVerifier_Verify_BackendError(t *testing.T) {
	v := NewVerifier(&mockProvider{err: errors.New("API error (500)")}, nil)

	_, err := v.Verify(context.Background(), testClaim, nil)
	if !errors.Is(err, model.ErrUpstream) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
}

func TestSchema_VerdictEnum(t *testing.T) {
	enum := Schema.Properties["verdict"].Enum
	if len(enum) != 4 {
		t.Fatalf("Expected 4 verdicts, got %v", enum)
	}
	for _, v := range enum {
		if !model.Verdict(v).IsTerminal() {
			t.Errorf("%s is not terminal", v)
		}
	}
}
