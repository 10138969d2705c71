package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/stokes"
)

var acfProduct string

var acfCmd = &cobra.Command{
	Use:   "acf",
	Short: "Write the zero-frequency-lag autocorrelation trace",
	Long: `Autocorrelate the dynamic spectrum of one Stokes product in time and
frequency and write its zero-frequency-lag trace to acf_<product>.csv.

Examples:
  dstools acf -c dstools.yaml --product V`,
	Args: cobra.NoArgs,
	RunE: runACF,
}

func init() {
	rootCmd.AddCommand(acfCmd)

	acfCmd.Flags().StringVarP(&acfProduct, "product", "p", string(stokes.I),
		"Stokes product to autocorrelate")
}

func runACF(cmd *cobra.Command, args []string) error {
	name, err := stokes.ParseName(acfProduct)
	if err != nil {
		return err
	}
	cfg, ds, _, err := prepare(cmd)
	if err != nil {
		return err
	}
	res, err := ds.ACF(name)
	if err != nil {
		return err
	}

	trace := res.ZeroFrequencyTrace()
	step := ds.TimeResolution
	if len(ds.Time) > 1 {
		step = ds.Time[1] - ds.Time[0]
	}
	lags := make([]float64, len(trace))
	for k := range lags {
		lags[k] = float64(k+1) * step
	}

	path, err := writeColumns(cfg, fmt.Sprintf("acf_%s.csv", name),
		[]string{"lag", "acf"}, lags, trace)
	if err != nil {
		return fmt.Errorf("write acf: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
