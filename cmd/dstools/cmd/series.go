package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-dynspec/internal/config"
	"github.com/cwbudde/algo-dynspec/series"
)

var (
	writeAngle bool
	angleSigma float64
)

var lightcurveCmd = &cobra.Command{
	Use:   "lightcurve",
	Short: "Write the frequency-averaged lightcurve",
	Long: `Average every requested Stokes product over frequency and write
lightcurve.csv to the output directory. Folded spectra are written against
phase.

Examples:
  dstools lightcurve -c dstools.yaml --stokes I,V
  dstools lightcurve -c dstools.yaml --derotate --angle`,
	Args: cobra.NoArgs,
	RunE: runLightcurve,
}

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Write the time-averaged spectrum",
	Long: `Average every requested Stokes product over time and write
spectrum.csv to the output directory.

Examples:
  dstools spectrum -c dstools.yaml --favg 8`,
	Args: cobra.NoArgs,
	RunE: runSpectrum,
}

func init() {
	rootCmd.AddCommand(lightcurveCmd)
	rootCmd.AddCommand(spectrumCmd)

	lightcurveCmd.Flags().BoolVar(&writeAngle, "angle", false,
		"also write polarization_angle.csv")
	lightcurveCmd.Flags().Float64Var(&angleSigma, "angle-sigma", series.DefaultAngleSigma,
		"|L| detection threshold for the polarization angle")
}

func runLightcurve(cmd *cobra.Command, args []string) error {
	cfg, ds, _, err := prepare(cmd)
	if err != nil {
		return err
	}
	names, err := cfg.StokesNames()
	if err != nil {
		return err
	}
	lc, err := series.LightCurve(ds, names...)
	if err != nil {
		return err
	}
	if err := writeSeries(cmd, cfg, lc, "lightcurve.csv"); err != nil {
		return err
	}

	if writeAngle {
		pa := series.PolarizationAngle(ds, angleSigma)
		path, err := writeColumns(cfg, "polarization_angle.csv",
			[]string{lc.Column, "polarization_angle"}, lc.X, pa)
		if err != nil {
			return fmt.Errorf("write polarization angle: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	cfg, ds, _, err := prepare(cmd)
	if err != nil {
		return err
	}
	names, err := cfg.StokesNames()
	if err != nil {
		return err
	}
	sp, err := series.Spectrum(ds, names...)
	if err != nil {
		return err
	}
	return writeSeries(cmd, cfg, sp, "spectrum.csv")
}

func writeSeries(cmd *cobra.Command, cfg *config.Config, s *series.Series, name string) error {
	f, err := createOutput(cfg, name)
	if err != nil {
		return err
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), f.Name())
	return nil
}
