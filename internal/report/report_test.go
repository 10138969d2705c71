package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/extract/rawpol"
	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/internal/testutil"
)

// build returns a 4x2 seconds-unit spectrum at a 10 s cadence with row 2
// flagged.
func build(t *testing.T, rm *float64) *dynspec.DynamicSpectrum {
	t.Helper()
	planes := make([]*grid.Complex, 4)
	for k := range planes {
		planes[k] = testutil.ConstantGrid(4, 2, complex(1, 0.1))
		for c := 0; c < 2; c++ {
			planes[k].Set(2, c, grid.NaN())
		}
	}
	src, err := rawpol.FromArrays(testutil.Ramp(5e9, 10, 4), []float64{1000e6, 1010e6}, nil,
		planes[0], planes[1], planes[2], planes[3])
	if err != nil {
		t.Fatalf("FromArrays: %v", err)
	}

	cfg := dynspec.DefaultConfig()
	cfg.Band = "AT_C"
	cfg.TimeUnit = dynspec.Second
	if rm != nil {
		cfg.Derotate = true
		cfg.RM = rm
	}
	ds, err := dynspec.New(context.Background(), src, cfg)
	if err != nil {
		t.Fatalf("dynspec.New: %v", err)
	}
	return ds
}

func TestSummaryRoundTrip(t *testing.T) {
	rm := 12.5
	ds := build(t, &rm)

	var buf bytes.Buffer
	if err := Write(&buf, Summary(ds, 1500*time.Millisecond)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	mfs, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		metric string
		labels []string
		want   float64
	}{
		{MetricInfo, []string{"band", "AT_C"}, 1},
		{MetricBins, []string{"axis", "time"}, 4},
		{MetricBins, []string{"axis", "frequency"}, 2},
		{MetricScanSegments, nil, 1},
		{MetricBreakCycles, nil, 0},
		{MetricCycleTime, nil, 10},
		{MetricFreqResolution, nil, 5},
		{MetricFlagged, []string{"stokes", "I"}, 0.25},
		{MetricRotationMeasure, nil, 12.5},
		{MetricBuildDuration, nil, 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.metric+strings.Join(tc.labels, "_"), func(t *testing.T) {
			got, ok := Value(mfs[tc.metric], tc.labels...)
			if !ok {
				t.Fatalf("%s%v missing", tc.metric, tc.labels)
			}
			if got != tc.want {
				t.Errorf("%s%v = %v, want %v", tc.metric, tc.labels, got, tc.want)
			}
		})
	}

	if n := len(mfs[MetricFlagged].GetMetric()); n != 7 {
		t.Errorf("flagged series = %d, want one per product", n)
	}
}

func TestSummaryOmitsOptional(t *testing.T) {
	mfs := map[string]bool{}
	for _, mf := range Summary(build(t, nil), 0) {
		mfs[mf.GetName()] = true
	}
	if mfs[MetricRotationMeasure] {
		t.Error("rotation measure reported without derotation")
	}
	if mfs[MetricBuildDuration] {
		t.Error("build duration reported for zero elapsed")
	}
	if !mfs[MetricInfo] || !mfs[MetricBins] {
		t.Error("required families missing")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dstools.prom")
	if err := WriteFile(path, Summary(build(t, nil), 0)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# TYPE "+MetricBins+" gauge") {
		t.Errorf("missing TYPE line in:\n%s", data)
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "dstools.prom")
	if err := WriteFile(path, nil); err == nil {
		t.Fatal("WriteFile() error = nil")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	tests := []struct {
		name, text string
	}{
		{"bare word", "not a metric\n"},
		{"valid family then garbage", "# TYPE dstools_scan_segments gauge\ndstools_scan_segments 2\nnot a metric\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs, err := Parse(strings.NewReader(tt.text))
			if err == nil {
				t.Fatalf("Parse() = %d families, error = nil", len(mfs))
			}
			if mfs != nil {
				t.Errorf("Parse() returned families with error: %v", mfs)
			}
		})
	}
}

func TestValueMissing(t *testing.T) {
	if _, ok := Value(nil); ok {
		t.Error("Value(nil) reported a sample")
	}
	mf := gauge("x", "help", sample(1, "a", "b"))
	if _, ok := Value(mf, "a", "c"); ok {
		t.Error("Value matched a wrong label value")
	}
	if v, ok := Value(mf, "a", "b"); !ok || v != 1 {
		t.Errorf("Value() = %v, %v", v, ok)
	}
}
