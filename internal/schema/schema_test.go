package schema

import "testing"

func TestCompile_WrappedSchema(t *testing.T) {
	doc := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "test_sections",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sections": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []string{"sections"},
			},
		},
	}

	s, err := Compile("test_sections", doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if err := s.ValidateJSON([]byte(`{"sections":["a","b"]}`)); err != nil {
		t.Errorf("ValidateJSON(valid) error = %v", err)
	}
	if err := s.ValidateJSON([]byte(`{"sections":"a"}`)); err == nil {
		t.Error("ValidateJSON(wrong type) expected error")
	}
	if err := s.ValidateJSON([]byte(`{"parts":[]}`)); err == nil {
		t.Error("ValidateJSON(missing key) expected error")
	}
	if err := s.ValidateJSON([]byte(`not json`)); err == nil {
		t.Error("ValidateJSON(invalid JSON) expected error")
	}
}

func TestCompile_BareSchemaAndRegistry(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level": map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
		},
		"required": []string{"level"},
	}

	if _, err := Compile("test_level", doc); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	s, ok := Get("test_level")
	if !ok {
		t.Fatal("Get() did not find registered schema")
	}
	if err := s.ValidateJSON([]byte(`{"level":2}`)); err != nil {
		t.Errorf("ValidateJSON(valid) error = %v", err)
	}
	if err := s.ValidateJSON([]byte(`{"level":5}`)); err == nil {
		t.Error("ValidateJSON(out of bounds) expected error")
	}

	found := false
	for _, n := range Names() {
		if n == "test_level" {
			found = true
		}
	}
	if !found {
		t.Error("Names() missing test_level")
	}
}

func TestMustCompile_PanicsOnInvalidSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid schema")
		}
	}()
	MustCompile("broken", map[string]any{"type": 42})
}
