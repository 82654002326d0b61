package llm

import (
	"encoding/json"
	"strings"
)

// Schema describes a structured-output shape. It renders to JSON Schema for
// validation and OpenAI/Ollama, and to the OpenAPI subset Gemini accepts.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Enum        []string
	Nullable    bool
}

// JSONSchema renders the schema as a JSON Schema document
func (s *Schema) JSONSchema() map[string]interface{} {
	out := map[string]interface{}{}
	if s.Nullable {
		out["type"] = []string{s.Type, "null"}
	} else {
		out["type"] = s.Type
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]interface{}, 0, len(s.Enum)+1)
		for _, e := range s.Enum {
			enum = append(enum, e)
		}
		if s.Nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// GeminiSchema renders the schema in the Gemini responseSchema format
func (s *Schema) GeminiSchema() map[string]interface{} {
	out := map[string]interface{}{
		"type": strings.ToUpper(s.Type),
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Nullable {
		out["nullable"] = true
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.GeminiSchema()
		}
		out["properties"] = props
	}
	if s.Items != nil {
		out["items"] = s.Items.GeminiSchema()
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

// MarshalJSON renders the JSON Schema form
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONSchema())
}

// String returns the indented JSON Schema, for embedding in prompts
func (s *Schema) String() string {
	b, err := json.MarshalIndent(s.JSONSchema(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
