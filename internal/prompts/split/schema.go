package split

import "github.com/jackzampolin/storyboard/internal/schema"

// SectionsSchema is the JSON schema for split output.
var SectionsSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "screenplay_sections",
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sections": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"minItems":    1,
					"description": "Consecutive sections of the screenplay in source order.",
				},
			},
			"required": []string{"sections"},
		},
	},
}

// Schema is the compiled SectionsSchema.
var Schema = schema.MustCompile("split", SectionsSchema)

// Result represents the parsed result of a split call.
type Result struct {
	Sections []string `json:"sections"`
}
