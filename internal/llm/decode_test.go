package llm

import (
	"testing"
)

type decodedVerdict struct {
	Verdict string  `json:"verdict"`
	Notes   *string `json:"notes"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain", `{"verdict":"PASS"}`, "PASS", false},
		{"fenced", "```json\n{\"verdict\":\"FAIL\"}\n```", "FAIL", false},
		{"prose around", `Here you go: {"verdict":"PASS","notes":null} thanks`, "PASS", false},
		{"not json", "I could not decide", "", true},
		{"malformed", `{"verdict":`, "", true},
		{"enum violation", `{"verdict":"MAYBE"}`, "", true},
		{"missing required", `{"notes":"x"}`, "", true},
		{"wrong type", `{"verdict":"PASS","notes":5}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decodedVerdict
			err := DecodeJSON(tt.text, testSchema(), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Verdict != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got.Verdict)
			}
		})
	}
}

func TestDecodeJSON_NilSchema(t *testing.T) {
	var got decodedVerdict
	if err := DecodeJSON(`{"verdict":"anything"}`, nil, &got); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Verdict != "anything" {
		t.Errorf("Expected anything, got %s", got.Verdict)
	}
}

func TestExtractJSON(t *testing.T) {
	if got := ExtractJSON("no braces here"); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
	if got := ExtractJSON("```\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("Expected fenced body, got %q", got)
	}
	if got := ExtractJSON(`x {"a":{"b":2}} y`); got != `{"a":{"b":2}}` {
		t.Errorf("Expected outer object, got %q", got)
	}
}
