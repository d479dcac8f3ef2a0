package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/backends"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

// modelsView is the structured output of the models command.
type modelsView struct {
	DefaultModel    string                  `json:"default_model" yaml:"default_model"`
	DefaultCategory string                  `json:"default_category" yaml:"default_category"`
	Categories      []backends.CategoryInfo `json:"categories" yaml:"categories"`
	Rules           []backends.Rule         `json:"rules" yaml:"rules"`
	Providers       []string                `json:"providers" yaml:"providers"`
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List backend categories and model routing rules",
	Long: `List the backend categories that are available with the current config and
environment, and the prefix rules that route a model name to a category.

A category is missing when its provider is disabled or has no API key; using a
model routed to it fails before any call is made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()

		dispatcher := svcctx.DispatcherFrom(ctx)
		resolver := dispatcher.Resolver()
		view := modelsView{
			DefaultModel:    svcctx.ConfigFrom(ctx).Get().Pipeline.DefaultModel,
			DefaultCategory: resolver.DefaultCategory(),
			Categories:      dispatcher.Categories(),
			Rules:           resolver.Rules(),
			Providers:       svcctx.RegistryFrom(ctx).ListLLM(),
		}

		if !api.IsStructuredOutput() {
			fmt.Println(api.RenderTable(api.CategoryTable(view.Categories)))
			fmt.Println(api.RenderTable(api.RuleTable(view.Rules)))
			fmt.Printf("Unmatched models use %q. Default model: %s\n", view.DefaultCategory, view.DefaultModel)
			return nil
		}
		if api.GetOutputFormat() == api.OutputFormatCSV {
			return api.Output(api.CategoryTable(view.Categories))
		}
		return api.Output(view)
	},
}
