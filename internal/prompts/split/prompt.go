package split

import (
	_ "embed"

	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/types"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// Prompt keys.
const (
	SystemPromptKey = "split.system"
	UserPromptKey   = "split.user"
)

// Data is the template input for both split prompts.
type Data struct {
	NumSections int
	Title       string
	Text        string
	Narrative   *types.NarrativeContext
}

// NewData builds template input for splitting doc into n sections.
// Narrative context is omitted when empty.
func NewData(doc types.Document, n int) Data {
	d := Data{NumSections: n, Title: doc.Title, Text: doc.Text}
	if !doc.Narrative.IsEmpty() {
		d.Narrative = doc.Narrative
	}
	return d
}

// RegisterPrompts registers the split prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Section splitter system prompt - cuts a screenplay into N ordered, lossless sections",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Section splitter user prompt - narrative context plus the full screenplay",
	})
}
