// Package schema compiles and applies the JSON schemas that backend
// responses must match.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled response schema.
type Schema struct {
	Name     string          // Registry name (e.g., "shots")
	Raw      json.RawMessage // Document as registered, including any response_format wrapper
	compiled *jsonschema.Schema
}

var (
	mu       sync.RWMutex
	registry = map[string]*Schema{}
)

// Compile compiles doc and registers it under name.
// doc may be a bare schema or an OpenAI-style response_format wrapper.
func Compile(name string, doc any) (*Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema %s: %w", name, err)
	}

	core, err := extractValidationSchema(raw)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(core)); err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	s := &Schema{Name: name, Raw: raw, compiled: compiled}

	mu.Lock()
	registry[name] = s
	mu.Unlock()

	return s, nil
}

// MustCompile is like Compile but panics on error. Used for package-level schemas.
func MustCompile(name string, doc any) *Schema {
	s, err := Compile(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Get returns a registered schema by name.
func Get(name string) (*Schema, bool) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

// Names returns the registered schema names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a decoded JSON document (as produced by json.Unmarshal into any).
func (s *Schema) Validate(doc any) error {
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("output does not match %s schema: %w", s.Name, err)
	}
	return nil
}

// ValidateJSON decodes raw JSON and validates it.
func (s *Schema) ValidateJSON(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode JSON for %s validation: %w", s.Name, err)
	}
	return s.Validate(doc)
}

func extractValidationSchema(schemaRaw json.RawMessage) (json.RawMessage, error) {
	var root any
	if err := json.Unmarshal(schemaRaw, &root); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	if rootMap, ok := root.(map[string]any); ok {
		// Common OpenAI/OpenRouter wrapper: {"name","strict","schema":{...}}
		if inner, ok := rootMap["schema"]; ok {
			return json.Marshal(inner)
		}
		// Alternate wrapper: {"type":"json_schema","json_schema":{"schema":...}}
		if rawInner, ok := rootMap["json_schema"]; ok {
			if innerMap, ok := rawInner.(map[string]any); ok {
				if innerSchema, ok := innerMap["schema"]; ok {
					return json.Marshal(innerSchema)
				}
			}
		}
	}

	// Assume raw schema document.
	return schemaRaw, nil
}
