package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "dstools",
	Short: "Dynamic spectrum tools for radio interferometer visibilities",
	Long: `Build baseline-averaged dynamic spectra in all Stokes parameters from
calibrated visibilities, then derive lightcurves, spectra, autocorrelations
and rotation-measure products.

Settings come from an optional YAML file (--config) and are overridden by
flags given on the command line.

Examples:
  dstools summary --rawpol ./J1234 --band AT_C      # Header of a legacy export
  dstools lightcurve -c dstools.yaml --stokes I,V   # Write lightcurve.csv
  dstools convert ./J1234 J1234.db                  # Legacy export to SQLite`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	registerOverrides(pf)
}

// newLogger returns a text logger on the command's error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
