// Package prompts provides prompt management with embedded defaults and
// on-disk overrides.
//
// Resolution order for a key:
//  1. Override file <dir>/<key>.tmpl (if an override directory is configured and the file exists)
//  2. Embedded default (from .tmpl files in code)
//
// Prompt text is a Go text/template rendered with a stage-specific data struct.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: shots.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the text chosen for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
	Hash       string   `json:"hash"`
}
