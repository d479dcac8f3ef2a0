// Package pipeline turns a screenplay into an ordered, contiguously numbered
// list of storyboard shots.
//
// A run plans how many chunks to generate, splits the document into that many
// sections, and folds over the sections in order. Each chunk sees the shots
// produced before it through a bounded continuity window, so chunks are never
// generated concurrently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/prompts"
	"github.com/jackzampolin/storyboard/internal/prompts/shots"
	"github.com/jackzampolin/storyboard/internal/prompts/split"
	"github.com/jackzampolin/storyboard/internal/types"
)

// DefaultSplitTimeout bounds the single section-split call.
const DefaultSplitTimeout = 2 * time.Minute

// ErrEmptyDocument is returned when the document has no text.
var ErrEmptyDocument = errors.New("document text is empty")

// Config configures a Pipeline.
type Config struct {
	Dispatcher    *backends.Dispatcher
	Prompts       *prompts.Resolver // Optional; embedded prompts are used when nil
	DefaultModel  string
	RetryAttempts uint
	RetryDelay    time.Duration
	SplitTimeout  time.Duration
	Logger        *slog.Logger
}

// Pipeline generates shots for documents. It holds no per-run state and may
// serve several runs concurrently.
type Pipeline struct {
	dispatcher    *backends.Dispatcher
	prompts       *prompts.Resolver
	defaultModel  string
	retryAttempts uint
	retryDelay    time.Duration
	splitTimeout  time.Duration
	validate      *validator.Validate
	logger        *slog.Logger
}

// New creates a pipeline from cfg, filling defaults.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompts.NewResolver("", cfg.Logger)
	}
	split.RegisterPrompts(cfg.Prompts)
	shots.RegisterPrompts(cfg.Prompts)

	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.SplitTimeout <= 0 {
		cfg.SplitTimeout = DefaultSplitTimeout
	}

	return &Pipeline{
		dispatcher:    cfg.Dispatcher,
		prompts:       cfg.Prompts,
		defaultModel:  cfg.DefaultModel,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		splitTimeout:  cfg.SplitTimeout,
		validate:      validator.New(),
		logger:        cfg.Logger,
	}
}

// Request is the input of one run.
type Request struct {
	Document types.Document
	Catalog  types.Catalog
	MinCount int    `validate:"gt=0"`
	MaxCount int    `validate:"gt=0,gtefield=MinCount"`
	Model    string // Uses the pipeline default when empty
	Progress types.ProgressFunc

	// Feedback and CurrentShots regenerate an earlier result. The current
	// shots are spread over the chunks in order, like the sections.
	Feedback     string       `validate:"required_with=CurrentShots"`
	CurrentShots []types.Shot
}

// Result is the output of a successful run.
type Result struct {
	RunID         string          `json:"run_id" yaml:"run_id"`
	Model         string          `json:"model" yaml:"model"`
	Category      string          `json:"category" yaml:"category"`
	Plan          types.ChunkPlan `json:"plan" yaml:"plan"`
	SplitFallback bool            `json:"split_fallback" yaml:"split_fallback"`
	Shots         []types.Shot    `json:"shots" yaml:"shots"`
}

// Generate runs the full pipeline. On failure it returns *FirstChunkError,
// *PartialFailureError, a *backends.ConfigurationError, or a validation error.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if strings.TrimSpace(req.Document.Text) == "" {
		return nil, ErrEmptyDocument
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}
	binding, err := p.dispatcher.Bind(model)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	r := &run{
		id:       runID,
		req:      req,
		plan:     Plan(req.MinCount, req.MaxCount),
		progress: req.Progress,
		logger:   p.logger.With("run_id", runID),
	}

	r.logger.Info("starting storyboard run",
		"model", model, "category", binding.Category,
		"document_chars", req.Document.Len(), "catalog_assets", req.Catalog.Len(),
		"target", r.plan.TargetCount, "chunk_size", r.plan.ChunkSize, "chunks", r.plan.NumChunks,
		"revision", req.Feedback != "", "current_shots", len(req.CurrentShots))

	splitter := &Splitter{
		binding: binding,
		prompts: p.prompts,
		timeout: p.splitTimeout,
		runID:   r.id,
		logger:  r.logger,
	}
	sections, fellBack := splitter.Split(ctx, req.Document, r.plan.NumChunks)

	r.gen = &ChunkGenerator{
		binding:  binding,
		prompts:  p.prompts,
		attempts: p.retryAttempts,
		delay:    p.retryDelay,
		runID:    r.id,
		logger:   r.logger,
	}

	final := foldChunks(sections, newRunState(), func(st runState, i int, section string) runState {
		return r.step(ctx, st, i, section)
	})
	if final.err != nil {
		return nil, r.failure(final)
	}

	shotList := Assemble(final.chunks)
	r.logger.Info("storyboard run complete", "shots", len(shotList), "split_fallback", fellBack)

	return &Result{
		RunID:         r.id,
		Model:         model,
		Category:      binding.Category,
		Plan:          r.plan,
		SplitFallback: fellBack,
		Shots:         shotList,
	}, nil
}

// runState is the accumulator threaded through foldChunks.
type runState struct {
	chunks   []types.ChunkResult
	cont     *Continuity
	failedAt int
	err      error
}

func newRunState() runState {
	return runState{cont: NewContinuity(), failedAt: -1}
}

// foldChunks applies step to each section in order. Once step records an
// error the state passes through the remaining sections unchanged.
func foldChunks(sections []string, init runState, step func(runState, int, string) runState) runState {
	return fold(sections, init, func(st runState, i int, section string) runState {
		if st.err != nil {
			return st
		}
		return step(st, i, section)
	})
}

func fold[S, T any](items []T, acc S, f func(S, int, T) S) S {
	for i, item := range items {
		acc = f(acc, i, item)
	}
	return acc
}

// run holds the state of a single Generate call.
type run struct {
	id       string
	req      Request
	plan     types.ChunkPlan
	gen      *ChunkGenerator
	progress types.ProgressFunc
	logger   *slog.Logger
}

func (r *run) step(ctx context.Context, st runState, i int, section string) runState {
	total := r.plan.NumChunks
	r.notify(types.Progress{Current: i, Total: total, Message: fmt.Sprintf("Generating chunk %d of %d", i+1, total)})

	start := time.Now()
	res, err := r.gen.Generate(ctx, ChunkRequest{
		Index:       i,
		Total:       total,
		Section:     section,
		Document:    r.req.Document,
		Catalog:     r.req.Catalog,
		Plan:        r.plan,
		StartNumber: st.cont.NextShotNumber(),
		Recent:      st.cont.Recent(),
		Feedback:    r.req.Feedback,
		Current:     shareOf(r.req.CurrentShots, i, total),
	})
	if err != nil {
		r.logger.Error("chunk generation failed", "chunk", i+1, "of", total, "completed_shots", st.cont.Emitted(), "error", err)
		r.notify(types.Progress{Current: i, Total: total, Message: fmt.Sprintf("Chunk %d of %d failed", i+1, total)})
		st.err = err
		st.failedAt = i
		return st
	}

	st.cont.Advance(res.Shots)
	st.chunks = append(st.chunks, *res)

	r.logger.Info("chunk complete", "chunk", i+1, "of", total, "shots", len(res.Shots), "duration", time.Since(start))
	r.notify(types.Progress{Current: i + 1, Total: total, Message: fmt.Sprintf("Chunk %d of %d complete (%d shots)", i+1, total, len(res.Shots))})
	return st
}

// shareOf returns the i-th of n contiguous, near-equal slices of items.
func shareOf[T any](items []T, i, n int) []T {
	if len(items) == 0 || n <= 0 {
		return nil
	}
	return items[i*len(items)/n : (i+1)*len(items)/n]
}

func (r *run) notify(p types.Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

func (r *run) failure(st runState) error {
	if st.failedAt == 0 {
		return &FirstChunkError{TotalChunks: r.plan.NumChunks, Err: st.err}
	}
	completed := Assemble(st.chunks)
	return &PartialFailureError{
		ChunkIndex:     st.failedAt,
		TotalChunks:    r.plan.NumChunks,
		CompletedShots: len(completed),
		Shots:          completed,
		Err:            st.err,
	}
}
