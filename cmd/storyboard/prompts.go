package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/svcctx"
)

// promptRow is one prompt in the prompts listing.
type promptRow struct {
	Key         string   `json:"key" yaml:"key"`
	Description string   `json:"description" yaml:"description"`
	Variables   []string `json:"variables" yaml:"variables"`
	Override    bool     `json:"override" yaml:"override"`
	Hash        string   `json:"hash" yaml:"hash"`
}

type promptTable []promptRow

func (promptTable) Headers() []string { return []string{"Key", "Override", "Hash", "Variables"} }

func (t promptTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, p := range t {
		override := ""
		if p.Override {
			override = "yes"
		}
		rows[i] = []string{p.Key, override, p.Hash[:12], strings.Join(p.Variables, ", ")}
	}
	return rows
}

func (promptTable) Aligns() []api.Alignment { return nil }

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List prompt templates and their overrides",
	Long: `List the prompt templates used by the pipeline.

A template is overridden by placing <key>.tmpl in the prompts directory
(~/.storyboard/prompts, or prompts_dir in the config). Start from the default
with: storyboard prompts show shots.system > ~/.storyboard/prompts/shots.system.tmpl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()
		resolver := svcctx.PromptsFrom(ctx)

		var rows promptTable
		for _, e := range resolver.AllEmbedded() {
			r, err := resolver.Resolve(e.Key)
			if err != nil {
				return err
			}
			rows = append(rows, promptRow{
				Key:         e.Key,
				Description: e.Description,
				Variables:   r.Variables,
				Override:    r.IsOverride,
				Hash:        r.Hash,
			})
		}
		if f := api.GetOutputFormat(); f == api.OutputFormatTable || f == api.OutputFormatCSV {
			return api.Output(rows)
		}
		return api.Output([]promptRow(rows))
	},
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the text of a prompt template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, done, err := withServices(cmd)
		if err != nil {
			return err
		}
		defer done()

		p, err := svcctx.PromptsFrom(ctx).Resolve(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), p.Text)
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsShowCmd)
}
