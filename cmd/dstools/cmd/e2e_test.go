package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/extract/rawpol"
	"github.com/cwbudde/algo-dynspec/internal/config"
	"github.com/cwbudde/algo-dynspec/internal/report"
	"github.com/cwbudde/algo-dynspec/internal/testutil"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// writeExport saves twelve 10 s integrations over four C-band channels with
// 2 Jy in XX and YY and 0.3 Jy in XY and YX.
func writeExport(t *testing.T) string {
	t.Helper()
	const rows, cols = 12, 4
	xx := testutil.ConstantGrid(rows, cols, complex(2, 0.05))
	xy := testutil.ConstantGrid(rows, cols, complex(0.3, 0))
	vis := &extract.Visibilities{
		Time:   testutil.Ramp(5e9, 10, rows),
		Freq:   testutil.Ramp(5500e6, 10e6, cols),
		UVDist: []float64{0},
		XX:     xx, XY: xy, YX: xy.Clone(), YY: xx.Clone(),
		Header: extract.Header{Telescope: "ATCA"},
	}
	dir := filepath.Join(t.TempDir(), "export")
	if err := rawpol.Save(dir, vis); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dstools.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with fresh flags and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default so state does not leak
// between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestSummaryE2E(t *testing.T) {
	dir := writeExport(t)

	tests := []struct {
		name        string
		args        []string
		wantContain []string
	}{
		{
			name:        "flags only",
			args:        []string{"summary", "--rawpol", dir, "--band", "AT_C", "--tunit", "s"},
			wantContain: []string{"telescope: ATCA", "band: AT_C", "integrations: 12", "channels: 4", "time_start:"},
		},
		{
			name:        "verbose shape",
			args:        []string{"summary", "-v", "--rawpol", dir, "--band", "AT_C", "--tavg", "3", "--favg", "2"},
			wantContain: []string{"shape: 4 x 2", "scans: 1"},
		},
		{
			name:        "fixed rotation measure",
			args:        []string{"summary", "--rawpol", dir, "--band", "AT_C", "--rm", "25"},
			wantContain: []string{"rotation_measure: 25.0 rad/m2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestConfigFileWithOverrides(t *testing.T) {
	dir := writeExport(t)
	cfg := writeConfig(t, "source:\n  kind: rawpol\n  path: "+dir+"\nspectrum:\n  band: AT_C\n  tavg: 2\n")

	output, err := execute(t, "summary", "-v", "-c", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "shape: 6 x 4") {
		t.Errorf("config tavg not applied:\n%s", output)
	}

	output, err = execute(t, "summary", "-v", "-c", cfg, "--tavg", "4")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "shape: 3 x 4") {
		t.Errorf("flag override not applied:\n%s", output)
	}
}

func TestSeriesE2E(t *testing.T) {
	dir := writeExport(t)
	out := t.TempDir()
	common := []string{"--rawpol", dir, "--band", "AT_C", "--tunit", "s", "--out", out}

	if _, err := execute(t, append([]string{"lightcurve", "--stokes", "I,V", "--angle"}, common...)...); err != nil {
		t.Fatalf("lightcurve: %v", err)
	}
	lc := readLines(t, filepath.Join(out, "lightcurve.csv"))
	if lc[0] != "time,flux_density_I,flux_density_I_err,flux_density_V,flux_density_V_err" {
		t.Errorf("lightcurve header = %q", lc[0])
	}
	if len(lc) != 13 {
		t.Errorf("lightcurve rows = %d, want 12 plus header", len(lc)-1)
	}
	if !strings.HasPrefix(lc[1], "2017-04-27 ") {
		t.Errorf("lightcurve time column not a timestamp: %q", lc[1])
	}
	if _, err := os.Stat(filepath.Join(out, "polarization_angle.csv")); err != nil {
		t.Errorf("polarization angle not written: %v", err)
	}

	if _, err := execute(t, append([]string{"spectrum"}, common...)...); err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	sp := readLines(t, filepath.Join(out, "spectrum.csv"))
	if !strings.HasPrefix(sp[0], "frequency,flux_density_I,") || len(sp) != 5 {
		t.Errorf("spectrum.csv = %q", sp)
	}
	if !strings.HasPrefix(sp[1], "5500,2000,") {
		t.Errorf("first spectrum row = %q, want 5500 MHz at 2000 mJy", sp[1])
	}

	if _, err := execute(t, append([]string{"acf", "--product", "I"}, common...)...); err != nil {
		t.Fatalf("acf: %v", err)
	}
	acf := readLines(t, filepath.Join(out, "acf_I.csv"))
	if acf[0] != "lag,acf" || len(acf) != 12 {
		t.Errorf("acf_I.csv has %d lines, header %q", len(acf), acf[0])
	}
}

func TestRME2E(t *testing.T) {
	dir := writeExport(t)
	out := t.TempDir()
	cfg := writeConfig(t, `
source:
  kind: rawpol
  path: `+dir+`
spectrum:
  band: AT_C
  tunit: s
rm:
  phi_min: -100
  phi_max: 100
  phi_step: 1
output:
  dir: `+out+`
`)

	output, err := execute(t, "rm", "-c", cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "rotation_measure:") || !strings.Contains(output, "integration: 0") {
		t.Errorf("unexpected output:\n%s", output)
	}
	fdf := readLines(t, filepath.Join(out, "fdf.csv"))
	if fdf[0] != "phi,fdf,cleaned,model" || len(fdf) != 202 {
		t.Errorf("fdf.csv has %d lines, header %q", len(fdf), fdf[0])
	}
	rmsf := readLines(t, filepath.Join(out, "rmsf.csv"))
	if len(rmsf) != 402 {
		t.Errorf("rmsf.csv has %d lines, want 401 plus header", len(rmsf))
	}
}

func TestConvertE2E(t *testing.T) {
	dir := writeExport(t)
	db := filepath.Join(t.TempDir(), "cube.db")

	output, err := execute(t, "convert", dir, db)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(output, "12 integrations x 4 channels") {
		t.Errorf("convert output = %q", output)
	}

	metrics := filepath.Join(t.TempDir(), "run.prom")
	output, err = execute(t, "summary", "--sqlite", db, "--band", "AT_C", "--metrics", metrics)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(output, "telescope: ATCA") {
		t.Errorf("telescope lost in conversion:\n%s", output)
	}

	f, err := os.Open(metrics)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	defer f.Close()
	mfs, err := report.Parse(f)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := report.Value(mfs[report.MetricBins], "axis", "frequency"); !ok || v != 4 {
		t.Errorf("frequency bins = %v, %v", v, ok)
	}
}

func TestErrorsE2E(t *testing.T) {
	dir := writeExport(t)

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{name: "no source", args: []string{"summary"}},
		{name: "unknown product", args: []string{"acf", "--rawpol", dir, "--product", "W"}, target: stokes.ErrUnknownName},
		{name: "fold without period", args: []string{"summary", "--rawpol", dir, "--band", "AT_C", "--fold"}},
		{name: "watch without config", args: []string{"watch"}},
		{name: "convert arity", args: []string{"convert", dir}},
		{name: "missing export", args: []string{"summary", "--rawpol", filepath.Join(dir, "absent")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestWriteColumnsSkipsNaN(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(t.TempDir(), "nested")
	path, err := writeColumns(cfg, "cols.csv", []string{"a", "b"},
		[]float64{1, 2, 3}, []float64{4, math.NaN(), 6})
	if err != nil {
		t.Fatalf("writeColumns: %v", err)
	}
	lines := readLines(t, path)
	if len(lines) != 3 || lines[1] != "1,4" || lines[2] != "3,6" {
		t.Errorf("lines = %q", lines)
	}
}

func TestWriteColumnsRejectsBadShape(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	tests := []struct {
		name   string
		header []string
		cols   [][]float64
	}{
		{"no columns", nil, nil},
		{"header mismatch", []string{"a"}, [][]float64{{1}, {2}}},
		{"ragged", []string{"a", "b"}, [][]float64{{1, 2}, {3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeColumns(cfg, "bad.csv", tt.header, tt.cols...); err == nil {
				t.Fatal("writeColumns() error = nil")
			}
			if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "bad.csv")); !os.IsNotExist(err) {
				t.Errorf("bad.csv was created: %v", err)
			}
		})
	}
}
