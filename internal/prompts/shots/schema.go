package shots

import "github.com/jackzampolin/storyboard/internal/schema"

// ShotsSchema is the JSON schema for chunk output.
var ShotsSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name": "storyboard_shots",
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"shots": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"shot_number":     map[string]any{"type": []string{"integer", "string"}},
							"voice_character": map[string]any{"type": "string"},
							"emotion":         map[string]any{"type": "string"},
							"intensity":       map[string]any{"type": "string"},
							"assets":          map[string]any{"type": "string"},
							"dialogue":        map[string]any{"type": "string"},
							"fusion_prompt": map[string]any{
								"type":      "string",
								"minLength": 1,
							},
							"motion_prompt": map[string]any{
								"type":      "string",
								"minLength": 1,
							},
						},
						"required": []string{"dialogue", "fusion_prompt", "motion_prompt"},
					},
				},
			},
			"required": []string{"shots"},
		},
	},
}

// Schema is the compiled ShotsSchema.
var Schema = schema.MustCompile("shots", ShotsSchema)
