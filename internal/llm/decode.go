package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DecodeJSON parses a model answer into v after validating it against schema.
// Answers wrapped in markdown fences or surrounded by prose are tolerated.
func DecodeJSON(text string, schema *Schema, v interface{}) error {
	raw := strings.TrimSpace(text)
	if !json.Valid([]byte(raw)) {
		raw = ExtractJSON(raw)
		if raw == "" {
			return fmt.Errorf("response is not JSON")
		}
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("response contains malformed JSON")
		}
	}

	if schema != nil {
		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(schema.JSONSchema()),
			gojsonschema.NewStringLoader(raw),
		)
		if err != nil {
			return fmt.Errorf("validate response: %w", err)
		}
		if !result.Valid() {
			issues := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				issues = append(issues, desc.String())
			}
			return fmt.Errorf("response does not match schema: %s", strings.Join(issues, "; "))
		}
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// ExtractJSON pulls a JSON object out of a model answer. It prefers a fenced
// ```json block and falls back to the outermost braces. Returns "" if none.
func ExtractJSON(content string) string {
	if start := strings.Index(content, "```"); start >= 0 {
		body := content[start+3:]
		body = strings.TrimPrefix(body, "json")
		if end := strings.Index(body, "```"); end >= 0 {
			fenced := strings.TrimSpace(body[:end])
			if strings.HasPrefix(fenced, "{") {
				return fenced
			}
		}
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first < 0 || last <= first {
		return ""
	}
	return content[first : last+1]
}
