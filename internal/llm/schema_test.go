package llm

import (
	"encoding/json"
	"strings"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"verdict": {Type: "string", Enum: []string{"PASS", "FAIL"}},
			"notes":   {Type: "string", Nullable: true},
			"tags":    {Type: "array", Items: &Schema{Type: "string"}},
		},
		Required: []string{"verdict"},
	}
}

func TestSchema_JSONSchema(t *testing.T) {
	out := testSchema().JSONSchema()

	if out["type"] != "object" {
		t.Errorf("Expected object type, got %v", out["type"])
	}
	props := out["properties"].(map[string]interface{})

	notes := props["notes"].(map[string]interface{})
	types, ok := notes["type"].([]string)
	if !ok || len(types) != 2 || types[1] != "null" {
		t.Errorf("Expected nullable type union, got %v", notes["type"])
	}

	tags := props["tags"].(map[string]interface{})
	if tags["items"].(map[string]interface{})["type"] != "string" {
		t.Errorf("Expected string items, got %v", tags["items"])
	}
}

func TestSchema_GeminiSchema(t *testing.T) {
	out := testSchema().GeminiSchema()

	if out["type"] != "OBJECT" {
		t.Errorf("Expected OBJECT, got %v", out["type"])
	}
	props := out["properties"].(map[string]interface{})
	notes := props["notes"].(map[string]interface{})
	if notes["type"] != "STRING" || notes["nullable"] != true {
		t.Errorf("Expected nullable STRING, got %v", notes)
	}
	verdict := props["verdict"].(map[string]interface{})
	if len(verdict["enum"].([]string)) != 2 {
		t.Errorf("Expected enum carried through, got %v", verdict["enum"])
	}
}

func TestSchema_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(testSchema())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"required":["verdict"]`) {
		t.Errorf("Expected required list, got %s", b)
	}
}
