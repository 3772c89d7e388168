package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-object",
		Description: "A test object",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			},
			"required": []any{"name", "age"},
		},
	}
}

// quizLikeSchema mirrors the shape of the generated quiz: bounded arrays
// of objects with no extra keys.
func quizLikeSchema() *Schema {
	return &Schema{
		Name: "test-quiz",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"minItems": 2,
					"maxItems": 2,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question": map[string]any{"type": "string"},
							"options": map[string]any{
								"type": "array", "minItems": 3, "maxItems": 3,
								"items": map[string]any{"type": "string"},
							},
							"correct_index": map[string]any{"type": "integer"},
						},
						"required":             []any{"question", "options", "correct_index"},
						"additionalProperties": false,
					},
				},
			},
			"required": []any{"questions"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	q := func(opts string) string {
		return `{"question":"Q?","options":` + opts + `,"correct_index":0}`
	}
	tests := []struct {
		name   string
		schema *Schema
		raw    string
		ok     bool
	}{
		{"valid", testSchema(), `{"name":"Alice","age":10,"grade":"A"}`, true},
		{"optional omitted", testSchema(), `{"name":"Bob","age":8}`, true},
		{"missing required", testSchema(), `{"name":"Charlie"}`, false},
		{"wrong type", testSchema(), `{"name":"Dave","age":"ten"}`, false},
		{"below minimum", testSchema(), `{"name":"Dave","age":-1}`, false},
		{"enum", testSchema(), `{"name":"Eve","age":9,"grade":"D"}`, false},
		{"malformed", testSchema(), `{not json}`, false},
		{"empty", testSchema(), ``, false},
		{"nil schema", nil, `{"anything":"goes"}`, true},
		{"quiz", quizLikeSchema(), `{"questions":[` + q(`["a","b","c"]`) + `,` + q(`["d","e","f"]`) + `]}`, true},
		{"quiz too few questions", quizLikeSchema(), `{"questions":[` + q(`["a","b","c"]`) + `]}`, false},
		{"quiz too few options", quizLikeSchema(), `{"questions":[` + q(`["a","b"]`) + `,` + q(`["d","e","f"]`) + `]}`, false},
		{"quiz extra key", quizLikeSchema(), `{"questions":[{"question":"Q?","options":["a","b","c"],"correct_index":0,"hint":"x"},` + q(`["d","e","f"]`) + `]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if tt.ok {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
			if string(inv.Content) != tt.raw {
				t.Errorf("content = %q, want the raw response", inv.Content)
			}
		})
	}
}

func TestValidateResponse_SameNameDifferentDefinition(t *testing.T) {
	loose := &Schema{Name: "shared", Definition: map[string]any{"type": "object"}}
	strict := &Schema{Name: "shared", Definition: map[string]any{
		"type":     "object",
		"required": []any{"id"},
	}}

	doc := json.RawMessage(`{"other":1}`)
	if err := validateResponse(loose, doc); err != nil {
		t.Fatalf("loose schema: %v", err)
	}
	if err := validateResponse(strict, doc); err == nil {
		t.Fatal("strict schema should reject a document without id")
	}
}

func TestValidateResponse_BadSchema(t *testing.T) {
	bad := &Schema{Name: "bad", Definition: map[string]any{"type": 12}}
	err := validateResponse(bad, json.RawMessage(`{}`))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse for an uncompilable schema, got: %T (%v)", err, err)
	}
}
