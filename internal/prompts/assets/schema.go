package assets

import "github.com/jackzampolin/storyboard/internal/schema"

func assetList(withPersona bool) map[string]any {
	props := map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"importance":  map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
	}
	if withPersona {
		for _, f := range []string{"gender", "age", "voice", "role"} {
			props[f] = map[string]any{"type": "string"}
		}
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   []string{"name"},
		},
	}
}

// CatalogSchema is the JSON schema for asset extraction output.
var CatalogSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name": "episode_assets",
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"characters": assetList(true),
				"props":      assetList(false),
				"scenes":     assetList(false),
			},
			"required": []string{"characters", "props", "scenes"},
		},
	},
}

// Schema is the compiled CatalogSchema.
var Schema = schema.MustCompile("assets", CatalogSchema)
