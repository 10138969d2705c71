package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/internal/config"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the spectrum whenever the config file changes",
	Long: `Build the dynamic spectrum once, then rebuild it and print its header
each time the --config file is saved. A failed rebuild is logged and the
watch continues. Flag overrides apply to every rebuild.

Examples:
  dstools watch -c dstools.yaml --metrics /var/lib/node_exporter/dstools.prom`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return errors.New("watch requires --config")
	}
	if err := runSummary(cmd, args); err != nil {
		return err
	}

	logger := newLogger(cmd)
	return config.Watch(cmd.Context(), configPath, logger, func(cfg *config.Config) {
		applyOverrides(cmd.Flags(), cfg)
		if err := cfg.Validate(); err != nil {
			logger.Error("rebuild skipped", "err", err)
			return
		}
		ds, err := build(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Error("rebuild failed", "err", err)
			return
		}
		fmt.Fprint(cmd.OutOrStdout(), ds.String())
	})
}
