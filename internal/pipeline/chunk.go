package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/cleaner"
	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/prompts/shots"
	"github.com/jackzampolin/storyboard/internal/types"
)

// Retry defaults for chunk generation.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 2 * time.Second
)

// ChunkRequest is everything needed to generate one chunk.
type ChunkRequest struct {
	Index       int // 0-based
	Total       int
	Section     string
	Document    types.Document
	Catalog     types.Catalog
	Plan        types.ChunkPlan
	StartNumber int
	Recent      []string
	Feedback    string
	Current     []types.Shot
}

// ChunkGenerator turns one section into shots.
type ChunkGenerator struct {
	binding  *backends.Binding
	prompts  *prompts.Resolver
	attempts uint
	delay    time.Duration
	runID    string
	logger   *slog.Logger
}

// Generate renders the chunk prompts, calls the backend with retry on
// transport failures, and parses the response. Parse failures are returned
// as *ParseError without retrying.
func (g *ChunkGenerator) Generate(ctx context.Context, req ChunkRequest) (*types.ChunkResult, error) {
	data := shots.NewData(shots.Input{
		ChunkIndex:  req.Index,
		TotalChunks: req.Total,
		StartNumber: req.StartNumber,
		Plan:        req.Plan,
		Section:     req.Section,
		Document:    req.Document,
		Catalog:     req.Catalog,
		Recent:      req.Recent,
		Feedback:    req.Feedback,
		Current:     req.Current,
	})
	system, err := g.prompts.Render(shots.SystemPromptKey, data)
	if err != nil {
		return nil, err
	}
	user, err := g.prompts.Render(shots.UserPromptKey, data)
	if err != nil {
		return nil, err
	}

	inv := backends.Invocation{
		Key:    shots.UserPromptKey,
		RunID:  g.runID,
		Prompt: user,
		System: system,
	}

	var raw string
	err = retry.Do(
		func() error {
			out, err := g.binding.Call(ctx, inv)
			if err != nil {
				return err
			}
			raw = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(backends.IsTransport),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Warn("chunk generation attempt failed, retrying",
				"run_id", g.runID, "chunk", req.Index+1, "attempt", n+1, "max_attempts", g.attempts, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	result, err := parseShots(raw, req.StartNumber, g.logger)
	if err != nil {
		return nil, err
	}
	if n := len(result); n < req.Plan.PerChunkMin || n > req.Plan.PerChunkMax {
		g.logger.Warn("chunk shot count outside requested bounds",
			"run_id", g.runID, "chunk", req.Index+1, "shots", n,
			"min", req.Plan.PerChunkMin, "max", req.Plan.PerChunkMax)
	}

	return &types.ChunkResult{ChunkIndex: req.Index, Shots: result}, nil
}

// parseShots cleans, validates and normalizes a chunk response.
// Shots are numbered provisionally from start.
func parseShots(raw string, start int, logger *slog.Logger) ([]types.Shot, error) {
	cleaned := cleaner.Clean(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, NewParseError("shots", raw, err)
	}
	if err := shots.Schema.Validate(doc); err != nil {
		return nil, NewParseError("shots", raw, err)
	}
	doc = cleaner.StripLeaves(doc)

	items, _ := doc.(map[string]any)["shots"].([]any)
	out := make([]types.Shot, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, NewParseError("shots", raw, fmt.Errorf("shot %d is not an object", i+1))
		}
		out = append(out, normalizeShot(fields, start+i, logger))
	}
	return out, nil
}

func normalizeShot(fields map[string]any, number int, logger *slog.Logger) types.Shot {
	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}

	shot := types.Shot{
		ShotNumber:     number,
		VoiceCharacter: str("voice_character"),
		Dialogue:       str("dialogue"),
		FusionPrompt:   str("fusion_prompt"),
		MotionPrompt:   str("motion_prompt"),
	}

	emotion, ok := types.ParseEmotion(str("emotion"))
	if !ok {
		logger.Warn("unknown emotion, using neutral", "shot", number, "emotion", str("emotion"))
	}
	shot.Emotion = emotion

	intensity, ok := types.ParseIntensity(str("intensity"))
	if !ok {
		logger.Warn("unknown intensity, using moderate", "shot", number, "intensity", str("intensity"))
	}
	shot.Intensity = intensity

	assets, dropped := types.LimitAssets(str("assets"), types.MaxShotAssets)
	if dropped > 0 {
		logger.Warn("shot references too many assets, dropping extras",
			"shot", number, "dropped", dropped, "kept", assets)
	}
	shot.Assets = assets

	if !strings.Contains(shot.MotionPrompt, "||") {
		logger.Debug("motion prompt missing delimiter", "shot", number)
	}
	return shot
}
