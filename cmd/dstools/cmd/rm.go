package cmd

import (
	"fmt"
	"math/cmplx"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/rm"
)

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Estimate the peak rotation measure",
	Long: `Run rotation-measure synthesis and RM-CLEAN on the integration with the
brightest Stokes I, print the rotation measure at the Faraday dispersion
function peak and write fdf.csv and rmsf.csv.

Examples:
  dstools rm -c dstools.yaml
  dstools rm --rawpol ./J1234 --band AT_L --tunit s`,
	Args: cobra.NoArgs,
	RunE: runRM,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRM(cmd *cobra.Command, args []string) error {
	cfg, ds, logger, err := prepare(cmd)
	if err != nil {
		return err
	}

	// Derotation without a fixed RM has already run the estimate.
	est := ds.RMEstimate
	if est == nil {
		opts := append(cfg.EngineOptions(), rm.WithLogger(logger))
		est, err = ds.EstimateRM(rm.NewEngine(cfg.Synthesizer(), opts...))
		if err != nil {
			return err
		}
	}

	res := est.Result
	if _, err := writeColumns(cfg, "fdf.csv",
		[]string{"phi", "fdf", "cleaned", "model"},
		res.Phi, abs(res.FDF), abs(res.Cleaned), abs(res.Model)); err != nil {
		return fmt.Errorf("write fdf: %w", err)
	}
	if _, err := writeColumns(cfg, "rmsf.csv",
		[]string{"phi", "rmsf"}, res.RMSFPhi, abs(res.RMSF)); err != nil {
		return fmt.Errorf("write rmsf: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rotation_measure: %.1f rad/m2\nintegration: %d\n", est.RM, est.Row)
	return nil
}

func abs(z []complex128) []float64 {
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = cmplx.Abs(v)
	}
	return out
}
