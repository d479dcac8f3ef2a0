// Package assets extracts an entity catalog from screenplay text so shot
// generation has tags to reference.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/cleaner"
	"github.com/jackzampolin/storyboard/internal/pipeline"
	"github.com/jackzampolin/storyboard/internal/prompts"
	assetprompts "github.com/jackzampolin/storyboard/internal/prompts/assets"
	"github.com/jackzampolin/storyboard/internal/types"
)

// DefaultTimeout bounds the extraction call.
const DefaultTimeout = 3 * time.Minute

// ErrEmptyText is returned when there is nothing to extract from.
var ErrEmptyText = errors.New("episode text is empty")

// Config configures an Extractor.
type Config struct {
	Dispatcher   *backends.Dispatcher
	Prompts      *prompts.Resolver
	DefaultModel string
	Timeout      time.Duration
	Logger       *slog.Logger

	// SimilarityThreshold marks extracted assets of the same kind as
	// duplicates; zero uses DefaultSimilarityThreshold.
	SimilarityThreshold float64
}

// Extractor asks a backend for the characters, props and scenes of an episode.
type Extractor struct {
	dispatcher   *backends.Dispatcher
	prompts      *prompts.Resolver
	defaultModel string
	timeout      time.Duration
	dedup        *Deduplicator
	logger       *slog.Logger
}

// NewExtractor creates an Extractor from cfg.
func NewExtractor(cfg Config) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompts.NewResolver("", cfg.Logger)
	}
	assetprompts.RegisterPrompts(cfg.Prompts)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Extractor{
		dispatcher:   cfg.Dispatcher,
		prompts:      cfg.Prompts,
		defaultModel: cfg.DefaultModel,
		timeout:      cfg.Timeout,
		dedup:        NewDeduplicator(cfg.SimilarityThreshold),
		logger:       cfg.Logger,
	}
}

type rawAsset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
	Age         string `json:"age"`
	Voice       string `json:"voice"`
	Role        string `json:"role"`
	Importance  int    `json:"importance"`
}

type rawCatalog struct {
	Characters []rawAsset `json:"characters"`
	Props      []rawAsset `json:"props"`
	Scenes     []rawAsset `json:"scenes"`
}

// Extract makes a single backend call and returns the assets whose importance
// is at least MinImportance. Assets without a score are kept.
func (e *Extractor) Extract(ctx context.Context, text string, episode int, model string) (types.Catalog, error) {
	if strings.TrimSpace(text) == "" {
		return types.Catalog{}, ErrEmptyText
	}
	if model == "" {
		model = e.defaultModel
	}
	binding, err := e.dispatcher.Bind(model)
	if err != nil {
		return types.Catalog{}, err
	}

	data := assetprompts.Data{Episode: episode, Text: text, MinImportance: assetprompts.MinImportance}
	system, err := e.prompts.Render(assetprompts.SystemPromptKey, data)
	if err != nil {
		return types.Catalog{}, err
	}
	user, err := e.prompts.Render(assetprompts.UserPromptKey, data)
	if err != nil {
		return types.Catalog{}, err
	}

	runID := uuid.New().String()
	raw, err := binding.Call(ctx, backends.Invocation{
		Key:     assetprompts.UserPromptKey,
		RunID:   runID,
		Prompt:  user,
		System:  system,
		Timeout: e.timeout,
	})
	if err != nil {
		return types.Catalog{}, fmt.Errorf("asset extraction for episode %d: %w", episode, err)
	}

	catalog, dups, err := parseCatalog(raw, e.dedup)
	if err != nil {
		return types.Catalog{}, err
	}
	for _, d := range dups {
		e.logger.Debug("dropped duplicate asset", "kind", d.Kind, "name", d.Name, "match", d.Match, "score", d.Score)
	}

	e.logger.Info("extracted assets", "run_id", runID, "episode", episode, "model", model,
		"characters", len(catalog.Characters), "props", len(catalog.Props), "scenes", len(catalog.Scenes), "duplicates", len(dups))
	return catalog, nil
}

func parseCatalog(raw string, dedup *Deduplicator) (types.Catalog, []Duplicate, error) {
	cleaned := cleaner.Clean(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return types.Catalog{}, nil, pipeline.NewParseError("assets", raw, err)
	}
	if err := assetprompts.Schema.Validate(doc); err != nil {
		return types.Catalog{}, nil, pipeline.NewParseError("assets", raw, err)
	}

	var rc rawCatalog
	if err := json.Unmarshal([]byte(cleaned), &rc); err != nil {
		return types.Catalog{}, nil, pipeline.NewParseError("assets", raw, err)
	}

	// Merging into an empty catalog drops near-duplicates within each kind.
	catalog, dups := dedup.Merge(types.Catalog{}, types.Catalog{
		Characters: keep(rc.Characters, true),
		Props:      keep(rc.Props, false),
		Scenes:     keep(rc.Scenes, false),
	})
	return catalog, dups, nil
}

// keep cleans names and filters by importance.
func keep(in []rawAsset, persona bool) []types.Asset {
	out := make([]types.Asset, 0, len(in))
	for _, r := range in {
		name := cleaner.StripDecoration(strings.TrimSpace(r.Name))
		if name == "" {
			continue
		}
		if r.Importance != 0 && r.Importance < assetprompts.MinImportance {
			continue
		}

		a := types.Asset{Name: name, Description: strings.TrimSpace(r.Description), Importance: r.Importance}
		if persona {
			a.Gender, a.Age, a.Voice, a.Role = r.Gender, r.Age, r.Voice, r.Role
		}
		out = append(out, a)
	}
	return out
}

// MergeInto adds extracted assets to existing, skipping likely duplicates.
func (e *Extractor) MergeInto(existing, extracted types.Catalog) (types.Catalog, []Duplicate) {
	merged, dups := e.dedup.Merge(existing, extracted)
	for _, d := range dups {
		e.logger.Info("skipped asset already in catalog", "kind", d.Kind, "name", d.Name, "match", d.Match, "score", d.Score)
	}
	return merged, dups
}
