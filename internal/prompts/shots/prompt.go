package shots

import (
	_ "embed"
	"fmt"

	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/types"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// Prompt keys.
const (
	SystemPromptKey = "shots.system"
	UserPromptKey   = "shots.user"
)

// Entity is a catalog asset as presented to the model.
type Entity struct {
	Tag         string
	Kind        types.AssetKind
	Description string
}

// Data is the template input for both shot prompts.
type Data struct {
	ChunkNumber  int // 1-based
	TotalChunks  int
	StartNumber  int
	PerChunkMin  int
	PerChunkMax  int
	Section      string
	FullDocument string
	Entities     []Entity
	Recent       []string
	Narrative    *types.NarrativeContext
	Emotions     []string
	Intensities  []string
	Placeholders []string
	MaxAssets    int
	Feedback     string
	Current      []types.Shot
}

// Input carries everything a chunk prompt is built from.
type Input struct {
	ChunkIndex  int // 0-based
	TotalChunks int
	StartNumber int
	Plan        types.ChunkPlan
	Section     string
	Document    types.Document
	Catalog     types.Catalog
	Recent      []string
	Feedback    string       // Revision notes; empty for a fresh run
	Current     []types.Shot // Existing shots for this section when revising
}

// NewData builds template input for one chunk. The full document is included
// only when it differs from the section.
func NewData(in Input) Data {
	d := Data{
		ChunkNumber: in.ChunkIndex + 1,
		TotalChunks: in.TotalChunks,
		StartNumber: in.StartNumber,
		PerChunkMin: in.Plan.PerChunkMin,
		PerChunkMax: in.Plan.PerChunkMax,
		Section:     in.Section,
		Recent:      in.Recent,
		MaxAssets:   types.MaxShotAssets,
		Feedback:    in.Feedback,
		Current:     in.Current,
	}
	if in.Document.Text != in.Section {
		d.FullDocument = in.Document.Text
	}
	if !in.Document.Narrative.IsEmpty() {
		d.Narrative = in.Document.Narrative
	}
	for _, e := range in.Catalog.Entries() {
		d.Entities = append(d.Entities, Entity{
			Tag:         e.Asset.Tag(),
			Kind:        e.Kind,
			Description: e.Asset.Description,
		})
	}
	for _, e := range types.Emotions {
		d.Emotions = append(d.Emotions, string(e))
	}
	for _, i := range types.Intensities {
		d.Intensities = append(d.Intensities, string(i))
	}
	for n := 1; n <= types.MaxShotAssets; n++ {
		d.Placeholders = append(d.Placeholders, Placeholder(n))
	}
	return d
}

var ordinals = []string{
	"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
	"eighteen", "nineteen", "twenty",
}

// Placeholder returns the anonymized name of the n-th (1-based) asset in a shot.
func Placeholder(n int) string {
	if n >= 1 && n <= len(ordinals) {
		return "image " + ordinals[n-1]
	}
	return fmt.Sprintf("image %d", n)
}

// RegisterPrompts registers the shot prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Shot generation system prompt - field rules, anonymization, fusion/motion structure",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Shot generation user prompt - catalog, bounds, continuity window and section text",
	})
}
