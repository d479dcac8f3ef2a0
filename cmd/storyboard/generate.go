package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/ingest"
	"github.com/jackzampolin/storyboard/internal/pipeline"
	"github.com/jackzampolin/storyboard/internal/svcctx"
	"github.com/jackzampolin/storyboard/internal/types"
)

// generateOptions are the flags shared by generate and watch.
type generateOptions struct {
	catalog     string
	narrative   string
	title       string
	model       string
	minCount    int
	maxCount    int
	keepPartial bool
	format      string
	outFile     string
	noSave      bool
	feedback    string
	fromRun     string
}

func (o *generateOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.catalog, "catalog", "", "entity catalog file (YAML or JSON)")
	f.StringVar(&o.narrative, "narrative", "", "narrative context file (YAML or JSON)")
	f.StringVar(&o.title, "title", "", "screenplay title (default: derived from the first file name)")
	f.StringVarP(&o.model, "model", "m", "", "model to use (default: pipeline.default_model)")
	f.IntVar(&o.minCount, "min", 40, "minimum number of shots")
	f.IntVar(&o.maxCount, "max", 60, "maximum number of shots")
	f.BoolVar(&o.keepPartial, "keep-partial", false, "write the shots of completed chunks when a later chunk fails")
	f.StringVar(&o.format, "format", "", "shot output format: table, csv, json or yaml (default: --output)")
	f.StringVar(&o.outFile, "out", "", "write shots to this file instead of stdout")
	f.BoolVar(&o.noSave, "no-save", false, "do not save the run under the home directory")
	f.StringVar(&o.feedback, "feedback", "", "revision notes applied to every chunk")
	f.StringVar(&o.fromRun, "from-run", "", "saved run JSON whose shots are revised with --feedback")
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate <script> [script...]",
	Short: "Generate storyboard shots for a screenplay",
	Long: `Generate an ordered shot list for a screenplay.

Multiple files are treated as parts of one screenplay and joined in order of
their numeric suffix (ep-1.txt, ep-2.txt, ...). Every run is saved as JSON
under ~/.storyboard/runs unless --no-save is given.

If a chunk after the first fails, the command exits with an error; pass
--keep-partial to still write the shots generated before the failure.

To revise an earlier result, pass the saved run with --from-run and describe
the changes with --feedback. The previous shots are shown to the model next to
the section they came from.

Examples:
  storyboard generate pilot.txt --catalog assets.yaml
  storyboard generate ep-1.txt ep-2.txt --min 80 --max 120 --format csv --out shots.csv
  storyboard generate pilot.txt -m gemini-2.5-pro -o json
  storyboard generate pilot.txt --from-run ~/.storyboard/runs/20250101-120000-3f2a.json --feedback "more close-ups"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()

		_, err = runGenerate(ctx, args, &genOpts)
		return err
	},
}

func init() {
	genOpts.bind(generateCmd)
}

// runGenerate loads inputs, runs the pipeline built from the services in ctx
// and writes the shots.
func runGenerate(ctx context.Context, scripts []string, opts *generateOptions) (*pipeline.Result, error) {
	logger := svcctx.LoggerFrom(ctx)
	format := api.GetOutputFormat()
	if opts.format != "" {
		f, err := api.ParseOutputFormat(opts.format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	in, err := ingest.Load(ingest.Request{
		ScriptPaths:   scripts,
		Title:         opts.title,
		CatalogPath:   opts.catalog,
		NarrativePath: opts.narrative,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	var current []types.Shot
	if opts.fromRun != "" {
		if opts.feedback == "" {
			return nil, errors.New("--from-run requires --feedback")
		}
		prev, err := loadRun(opts.fromRun)
		if err != nil {
			return nil, err
		}
		current = prev.Shots
		logger.Info("revising run", "run_id", prev.RunID, "shots", len(current))
	}

	started := time.Now()
	res, err := newPipeline(ctx).Generate(ctx, pipeline.Request{
		Document:     in.Document,
		Catalog:      in.Catalog,
		MinCount:     opts.minCount,
		MaxCount:     opts.maxCount,
		Model:        opts.model,
		Feedback:     opts.feedback,
		CurrentShots: current,
		Progress: func(pr types.Progress) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", pr.Current, pr.Total, pr.Message)
		},
	})
	if err != nil {
		return nil, reportFailure(err, format, opts)
	}

	if h := svcctx.HomeFrom(ctx); !opts.noSave && h != nil {
		path := h.RunPath(res.RunID, started, "json")
		if err := saveRun(path, res); err != nil {
			logger.Warn("failed to save run", "path", path, "error", err)
		} else {
			logger.Info("saved run", "path", path)
		}
	}

	return res, writeShots(format, opts.outFile, res, res.Shots)
}

// reportFailure prints recovery guidance for pipeline failures and, with
// --keep-partial, writes the completed shots before returning err.
func reportFailure(err error, format api.OutputFormat, opts *generateOptions) error {
	var partial *pipeline.PartialFailureError
	var first *pipeline.FirstChunkError
	switch {
	case errors.As(err, &partial):
		fmt.Fprintf(os.Stderr, "Generation stopped at chunk %d of %d; %d shots were completed.\n",
			partial.ChunkIndex+1, partial.TotalChunks, partial.CompletedShots)
		if !opts.keepPartial {
			fmt.Fprintln(os.Stderr, "Re-run with --keep-partial to keep them, or retry with a shorter screenplay or smaller --max.")
			return err
		}
		if werr := writeShots(format, opts.outFile, partial.Shots, partial.Shots); werr != nil {
			return errors.Join(err, werr)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d partial shots.\n", len(partial.Shots))
	case errors.As(err, &first):
		fmt.Fprintln(os.Stderr, "No shots were generated.")
	}
	return err
}

// writeShots writes full for structured formats and shots for table and csv.
func writeShots(format api.OutputFormat, outFile string, full any, shots []types.Shot) error {
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	var data any = full
	if format == api.OutputFormatTable || format == api.OutputFormatCSV {
		data = api.ShotTable(shots)
	}
	return api.OutputTo(w, format, data)
}

// loadRun reads a run saved by generate.
func loadRun(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse run %s: %w", path, err)
	}
	if len(res.Shots) == 0 {
		return nil, fmt.Errorf("run %s has no shots", path)
	}
	return &res, nil
}

func saveRun(path string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
