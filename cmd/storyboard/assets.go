package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/assets"
	"github.com/jackzampolin/storyboard/internal/ingest"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

var (
	assetsEpisode int
	assetsModel   string
	assetsOut     string
	assetsCatalog string
)

var assetsCmd = &cobra.Command{
	Use:   "assets <script> [script...]",
	Short: "Extract an entity catalog from a screenplay",
	Long: `Ask the backend for the characters, props and scenes of an episode.

Assets with an importance below 5 are dropped, as are near-duplicates of the
same kind (similar name and description). With --catalog the new assets are
merged into an existing catalog, skipping any that are already in it. The
result can be passed to generate with --catalog after review.

Examples:
  storyboard assets pilot.txt --out assets.yaml
  storyboard assets ep-3.txt --episode 3 -m deepseek-chat -o json
  storyboard assets ep-4.txt --episode 4 --catalog assets.yaml --out assets.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()

		in, err := ingest.Load(ingest.Request{
			ScriptPaths: args,
			CatalogPath: assetsCatalog,
			Logger:      svcctx.LoggerFrom(ctx),
		})
		if err != nil {
			return err
		}

		extractor := newExtractor(ctx)
		catalog, err := extractor.Extract(ctx, in.Document.Text, assetsEpisode, assetsModel)
		if err != nil {
			return err
		}
		if assetsCatalog != "" {
			var dups []assets.Duplicate
			catalog, dups = extractor.MergeInto(in.Catalog, catalog)
			fmt.Fprintf(os.Stderr, "Merged into %s: %d assets, %d already present\n", assetsCatalog, catalog.Len(), len(dups))
		}

		if assetsOut != "" {
			if err := ingest.SaveCatalog(assetsOut, catalog); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d assets to %s\n", catalog.Len(), assetsOut)
			return nil
		}
		return api.Output(catalog)
	},
}

func init() {
	assetsCmd.Flags().IntVar(&assetsEpisode, "episode", 1, "episode number")
	assetsCmd.Flags().StringVarP(&assetsModel, "model", "m", "", "model to use (default: pipeline.default_model)")
	assetsCmd.Flags().StringVar(&assetsOut, "out", "", "write the catalog as YAML to this file")
	assetsCmd.Flags().StringVar(&assetsCatalog, "catalog", "", "existing catalog to merge the new assets into")
}
