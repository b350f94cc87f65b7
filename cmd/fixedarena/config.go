package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective allocator configuration",
		Long: `The config command resolves the allocator settings from --config and the
dimension flags and prints them as TOML, ready to be saved and passed back
with --config.

Example:
  fixedarena config
  fixedarena config --capacity 65536 --slots 256 > arena.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cfg)
			}
			return cfg.WriteTOML(os.Stdout)
		},
	}
	return cmd
}
