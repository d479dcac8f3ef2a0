package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/assets"
	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/config"
	"github.com/jackzampolin/storyboard/internal/home"
	"github.com/jackzampolin/storyboard/internal/llmcall"
	"github.com/jackzampolin/storyboard/internal/pipeline"
	"github.com/jackzampolin/storyboard/internal/prompts"
	assetprompts "github.com/jackzampolin/storyboard/internal/prompts/assets"
	"github.com/jackzampolin/storyboard/internal/prompts/shots"
	"github.com/jackzampolin/storyboard/internal/prompts/split"
	"github.com/jackzampolin/storyboard/internal/providers"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

// withServices loads services and attaches them to the command's context.
// The returned func closes them.
func withServices(cmd *cobra.Command) (context.Context, func(), error) {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	ctx := svcctx.WithServices(cmd.Context(), svc)
	cmd.SetContext(ctx)
	return ctx, func() {
		if err := svc.Close(); err != nil {
			svc.Logger.Warn("failed to close call log", "error", err)
		}
	}, nil
}

// loadServices opens the home directory, config, call log and backends.
// Callers must Close the result.
func loadServices(ctx context.Context) (*svcctx.Services, error) {
	logger := slog.Default()

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	fresh := !h.Exists()
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}
	if fresh {
		logger.Info("created home directory", "path", h.Path())
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	mgr.SetLogger(logger)
	cfg := mgr.Get()
	if f := mgr.ConfigFile(); f != "" {
		logger.Debug("loaded config", "file", f)
	} else {
		logger.Debug("no config file, using defaults", "hint", "storyboard config init")
	}

	store, err := llmcall.Open(h.CallsDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open call log: %w", err)
	}
	recorder := llmcall.NewRecorder(store, logger)

	registry, dispatcher := buildBackends(ctx, cfg, recorder, logger)

	return &svcctx.Services{
		Config:       mgr,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Prompts:      newPromptResolver(cfg, h, logger),
		Logger:       logger,
		Home:         h,
		LLMCallStore: store,
		Recorder:     recorder,
	}, nil
}

// newPromptResolver registers every embedded prompt over the configured
// override directory, falling back to {home}/prompts.
func newPromptResolver(cfg *config.Config, h *home.Dir, logger *slog.Logger) *prompts.Resolver {
	dir := cfg.PromptsDir
	if dir == "" {
		dir = h.PromptsPath()
	}
	resolver := prompts.NewResolver(dir, logger)
	split.RegisterPrompts(resolver)
	shots.RegisterPrompts(resolver)
	assetprompts.RegisterPrompts(resolver)
	return resolver
}

// buildBackends creates provider clients and the dispatch table from cfg.
func buildBackends(ctx context.Context, cfg *config.Config, rec *llmcall.Recorder, logger *slog.Logger) (*providers.Registry, *backends.Dispatcher) {
	registry := providers.NewRegistryFromConfig(ctx, cfg.ToProviderRegistryConfig(), logger)
	dispatcher := backends.NewDispatcherFromConfig(cfg.ToDispatchConfig(), registry, logger)
	dispatcher.SetRecorder(rec)
	return registry, dispatcher
}

// newPipeline builds a pipeline from the services in ctx.
func newPipeline(ctx context.Context) *pipeline.Pipeline {
	cfg := svcctx.ConfigFrom(ctx).Get().Pipeline
	return pipeline.New(pipeline.Config{
		Dispatcher:    svcctx.DispatcherFrom(ctx),
		Prompts:       svcctx.PromptsFrom(ctx),
		DefaultModel:  cfg.DefaultModel,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay(),
		SplitTimeout:  cfg.SplitTimeout(),
		Logger:        svcctx.LoggerFrom(ctx),
	})
}

// newExtractor builds an asset extractor from the services in ctx.
func newExtractor(ctx context.Context) *assets.Extractor {
	cfg := svcctx.ConfigFrom(ctx).Get().Pipeline
	return assets.NewExtractor(assets.Config{
		Dispatcher:          svcctx.DispatcherFrom(ctx),
		Prompts:             svcctx.PromptsFrom(ctx),
		DefaultModel:        cfg.DefaultModel,
		Timeout:             cfg.AssetTimeout(),
		SimilarityThreshold: cfg.AssetSimilarity,
		Logger:              svcctx.LoggerFrom(ctx),
	})
}
