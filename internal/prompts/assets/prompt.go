package assets

import (
	_ "embed"

	"github.com/jackzampolin/storyboard/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// Prompt keys.
const (
	SystemPromptKey = "assets.system"
	UserPromptKey   = "assets.user"
)

// MinImportance is the lowest importance score kept in a catalog.
const MinImportance = 5

// Data is the template input for both asset prompts.
type Data struct {
	Episode       int
	Title         string
	Text          string
	MinImportance int
}

// RegisterPrompts registers the asset extraction prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Asset extraction system prompt - characters, props and scenes with importance scores",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Asset extraction user prompt - one episode of screenplay text",
	})
}
