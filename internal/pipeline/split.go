package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/cleaner"
	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/prompts/split"
	"github.com/jackzampolin/storyboard/internal/types"
)

// Splitter cuts a document into ordered sections, one per chunk.
type Splitter struct {
	binding *backends.Binding
	prompts *prompts.Resolver
	timeout time.Duration
	runID   string
	logger  *slog.Logger
}

// Split returns exactly n sections of doc. It asks the backend for a
// narrative-aware split once; on any failure it logs a warning and falls back
// to FallbackSplit, reporting fellBack = true. It never returns an error.
func (s *Splitter) Split(ctx context.Context, doc types.Document, n int) (sections []string, fellBack bool) {
	if n <= 1 {
		return []string{doc.Text}, false
	}

	sections, err := s.requestSplit(ctx, doc, n)
	if err != nil {
		s.logger.Warn("section split failed, using equal-length fallback",
			"run_id", s.runID, "sections", n, "error", err)
		return FallbackSplit(doc.Text, n), true
	}
	return sections, false
}

func (s *Splitter) requestSplit(ctx context.Context, doc types.Document, n int) ([]string, error) {
	data := split.NewData(doc, n)
	system, err := s.prompts.Render(split.SystemPromptKey, data)
	if err != nil {
		return nil, err
	}
	user, err := s.prompts.Render(split.UserPromptKey, data)
	if err != nil {
		return nil, err
	}

	raw, err := s.binding.Call(ctx, backends.Invocation{
		Key:     split.UserPromptKey,
		RunID:   s.runID,
		Prompt:  user,
		System:  system,
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}

	return parseSections(raw, n)
}

// parseSections validates a split response and checks its length.
func parseSections(raw string, n int) ([]string, error) {
	cleaned := cleaner.Clean(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, NewParseError("split", raw, err)
	}
	if err := split.Schema.Validate(doc); err != nil {
		return nil, NewParseError("split", raw, err)
	}

	var result split.Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, NewParseError("split", raw, err)
	}
	if len(result.Sections) != n {
		return nil, fmt.Errorf("expected %d sections, got %d", n, len(result.Sections))
	}
	for i, sec := range result.Sections {
		if strings.TrimSpace(sec) == "" {
			return nil, fmt.Errorf("section %d is blank", i+1)
		}
	}
	return result.Sections, nil
}

// FallbackSplit slices text into n contiguous rune ranges of near-equal length.
// Boundaries fall at i*len/n, so the concatenation of the result equals text.
func FallbackSplit(text string, n int) []string {
	if n < 1 {
		n = 1
	}
	runes := []rune(text)
	total := len(runes)

	sections := make([]string, n)
	for i := 0; i < n; i++ {
		lo := i * total / n
		hi := (i + 1) * total / n
		sections[i] = string(runes[lo:hi])
	}
	return sections
}
