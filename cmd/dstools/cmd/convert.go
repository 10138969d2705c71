package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/extract/rawpol"
	"github.com/cwbudde/algo-dynspec/extract/sqlitecube"
)

var convertCmd = &cobra.Command{
	Use:   "convert <rawpol-dir> <cube.db>",
	Short: "Convert a raw polarization export into a SQLite cube",
	Long: `Read a legacy raw polarization export directory and store it as a
single-baseline SQLite visibility cube.

Examples:
  dstools convert ./J1234 J1234.db`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	src, err := rawpol.Load(args[0], rawpol.WithLogger(logger))
	if err != nil {
		return err
	}
	vis, err := src.Visibilities(cmd.Context(), extract.DefaultSelection())
	if err != nil {
		return err
	}
	cube, err := extract.AveragedCube(vis)
	if err != nil {
		return err
	}
	if err := sqlitecube.Write(cmd.Context(), args[1], cube); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d integrations x %d channels\n",
		args[1], len(cube.Time), len(cube.Freq))
	return nil
}
