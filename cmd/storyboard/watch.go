package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/config"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

// watchDebounce coalesces editor save bursts into one run.
const watchDebounce = 750 * time.Millisecond

var watchOpts generateOptions

var watchCmd = &cobra.Command{
	Use:   "watch <script> [script...]",
	Short: "Regenerate shots whenever the screenplay or config changes",
	Long: `Watch screenplay files and regenerate the shot list each time one is saved.

Config changes are picked up without restarting: providers, routing rules,
pipeline settings and the prompts directory are rebuilt on the next run.
Stop with Ctrl+C.

Example:
  storyboard watch pilot.txt --catalog assets.yaml --format csv --out shots.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()
		base := svcctx.ServicesFrom(ctx)
		logger := base.Logger

		// Each run gets a snapshot so a reload never changes a run in flight.
		var mu sync.Mutex
		current := base
		snapshot := func() context.Context {
			mu.Lock()
			defer mu.Unlock()
			return svcctx.WithServices(ctx, current)
		}

		base.Config.OnChange(func(cfg *config.Config) {
			next := reloadServices(ctx, base, cfg)
			mu.Lock()
			current = next
			mu.Unlock()
			logger.Info("config reloaded", "categories", len(next.Dispatcher.Categories()),
				"default_model", cfg.Pipeline.DefaultModel, "prompts_dir", cfg.PromptsDir)
		})
		base.Config.WatchConfig()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		defer watcher.Close()

		// Watch directories so editors that replace files on save are still seen.
		watched := make(map[string]bool, len(args))
		for _, a := range args {
			abs, err := filepath.Abs(a)
			if err != nil {
				return err
			}
			watched[abs] = true
			if err := watcher.Add(filepath.Dir(abs)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", a, err)
			}
		}

		run := func() {
			if _, err := runGenerate(snapshot(), args, &watchOpts); err != nil {
				logger.Error("generation failed", "error", err)
			}
		}

		run()
		logger.Info("watching for changes", "files", len(args))

		var timer *time.Timer
		trigger := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				abs, _ := filepath.Abs(ev.Name)
				if !watched[abs] || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("file watcher error", "error", err)
			case <-trigger:
				logger.Info("screenplay changed, regenerating")
				run()
			}
		}
	},
}

// reloadServices returns a copy of base with backends and prompts rebuilt
// from cfg. The call log and home directory are shared.
func reloadServices(ctx context.Context, base *svcctx.Services, cfg *config.Config) *svcctx.Services {
	next := *base
	next.Registry, next.Dispatcher = buildBackends(ctx, cfg, base.Recorder, base.Logger)
	next.Prompts = newPromptResolver(cfg, base.Home, base.Logger)
	return &next
}

func init() {
	watchOpts.bind(watchCmd)
}

