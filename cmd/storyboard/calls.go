package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/llmcall"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

var (
	callsRun    string
	callsPrompt string
	callsModel  string
	callsSince  time.Duration
	callsFailed bool
	callsLimit  int
	callsOffset int
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "List recorded backend calls",
	Long: `List backend calls from the call log, newest first.

Every split, shot and asset request is recorded with its prompt key, category,
model, latency and outcome.

Examples:
  storyboard calls -o table
  storyboard calls --run 3f2a... --failed
  storyboard calls show <id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()
		store := svcctx.LLMCallStoreFrom(ctx)

		filter := llmcall.QueryFilter{
			RunID:     callsRun,
			PromptKey: callsPrompt,
			Model:     callsModel,
			Limit:     callsLimit,
			Offset:    callsOffset,
		}
		if callsSince > 0 {
			after := time.Now().Add(-callsSince)
			filter.After = &after
		}
		if callsFailed {
			ok := false
			filter.Success = &ok
		}

		calls, err := store.List(ctx, filter)
		if err != nil {
			return err
		}
		if f := api.GetOutputFormat(); f == api.OutputFormatTable || f == api.OutputFormatCSV {
			return api.Output(api.CallTable(calls))
		}
		return api.Output(calls)
	},
}

var callsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded call including its response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()
		store := svcctx.LLMCallStoreFrom(ctx)

		call, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if call == nil {
			return fmt.Errorf("call not found: %s", args[0])
		}
		if !api.IsStructuredOutput() {
			fmt.Println(api.RenderTable(api.CallTable{*call}))
			fmt.Println(call.Response)
			return nil
		}
		return api.Output(call)
	},
}

var callsStatsCmd = &cobra.Command{
	Use:   "stats <run-id>",
	Short: "Count the calls of a run by prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()
		store := svcctx.LLMCallStoreFrom(ctx)

		counts, err := store.CountByPromptKey(ctx, args[0])
		if err != nil {
			return err
		}
		return api.OutputTo(cmd.OutOrStdout(), structuredFormat(), counts)
	},
}

// structuredFormat maps table and csv output to yaml for data without rows.
func structuredFormat() api.OutputFormat {
	if f := api.GetOutputFormat(); f == api.OutputFormatJSON {
		return f
	}
	return api.OutputFormatYAML
}

func init() {
	f := callsCmd.Flags()
	f.StringVar(&callsRun, "run", "", "only calls of this run")
	f.StringVar(&callsPrompt, "prompt", "", "only calls with this prompt key (e.g. shots.user)")
	f.StringVar(&callsModel, "model", "", "only calls to this model")
	f.DurationVar(&callsSince, "since", 0, "only calls newer than this (e.g. 2h)")
	f.BoolVar(&callsFailed, "failed", false, "only failed calls")
	f.IntVar(&callsLimit, "limit", 50, "maximum number of calls")
	f.IntVar(&callsOffset, "offset", 0, "skip this many calls")

	callsCmd.AddCommand(callsShowCmd)
	callsCmd.AddCommand(callsStatsCmd)
}
