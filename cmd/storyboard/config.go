package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/storyboard/internal/api"
	"github.com/jackzampolin/storyboard/internal/config"
	"github.com/jackzampolin/storyboard/internal/home"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write the default configuration to ~/.storyboard/config.yaml (or the path
given with --config). Existing files are kept unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path, exists := cfgFile, false
		if path == "" {
			path, exists = h.ConfigPath(), h.ConfigExists()
		} else if _, err := os.Stat(path); err == nil {
			exists = true
		}
		if exists && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		mgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		if f := mgr.ConfigFile(); f != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# %s\n", f)
		}
		return api.OutputTo(cmd.OutOrStdout(), structuredFormat(), redacted(mgr.Get()))
	},
}

// redacted returns a copy of cfg with literal API keys masked. ${ENV_VAR}
// references are kept since they name the variable, not the secret.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.Providers = make(map[string]config.ProviderCfg, len(cfg.Providers))
	for name, p := range cfg.Providers {
		if p.APIKey != "" && !strings.HasPrefix(p.APIKey, "${") {
			p.APIKey = "****"
		}
		out.Providers[name] = p
	}
	return &out
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
