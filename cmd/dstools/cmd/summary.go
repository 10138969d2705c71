package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dynamic spectrum header",
	Long: `Build the dynamic spectrum and print its header: telescope, band,
baseline and integration counts, start time and resolutions.

Examples:
  dstools summary --rawpol ./J1234 --band AT_C
  dstools summary -c dstools.yaml --metrics run.prom`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	_, ds, _, err := prepare(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, ds.String())
	if verbose {
		rows, cols := ds.Shape()
		fmt.Fprintf(out, "shape: %d x %d\n", rows, cols)
		fmt.Fprintf(out, "scans: %d\n", len(ds.Intervals.Segments))
		for k, seg := range ds.Intervals.Segments {
			fmt.Fprintf(out, "  scan %d: integrations %d-%d\n", k, seg.Start, seg.End)
		}
	}
	return nil
}
