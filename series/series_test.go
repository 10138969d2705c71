package series

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/extract/rawpol"
	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/internal/testutil"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// build returns a 4x2 spectrum of 1 Jy Stokes I with a ±0.1 Jy noise proxy
// alternating by channel. XY carries sign(ch)·u Jy. Row 2 is flagged.
func build(t *testing.T, alternateU bool) *dynspec.DynamicSpectrum {
	t.Helper()
	planes := make([]*grid.Complex, 4)
	for k := range planes {
		planes[k] = grid.NewComplex(4, 2)
	}
	for r := 0; r < 4; r++ {
		for c := 0; c < 2; c++ {
			if r == 2 {
				for _, p := range planes {
					p.Set(r, c, grid.NaN())
				}
				continue
			}
			noise := 0.1
			if c == 1 {
				noise = -0.1
			}
			u := 0.2
			if alternateU && c == 1 {
				u = -0.2
			}
			planes[0].Set(r, c, complex(1, noise))
			planes[1].Set(r, c, complex(u, 0))
			planes[2].Set(r, c, complex(u, 0))
			planes[3].Set(r, c, complex(1, noise))
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
	ds, err := dynspec.New(context.Background(), src, cfg)
	if err != nil {
		t.Fatalf("dynspec.New: %v", err)
	}
	return ds
}

func TestLightCurve(t *testing.T) {
	ds := build(t, false)
	lc, err := LightCurve(ds, stokes.I, stokes.L)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, lc.X, []float64{0, 7.5, 15, 22.5}, 1e-12)
	nan := math.NaN()
	testutil.RequireSliceNearlyEqual(t, lc.Values[stokes.I], []float64{1000, 1000, nan, 1000}, 1e-9)
	e := 100 / math.Sqrt(2)
	testutil.RequireSliceNearlyEqual(t, lc.Errors[stokes.I], []float64{e, e, nan, e}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, lc.Values[stokes.L], []float64{200, 200, nan, 200}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, lc.Errors[stokes.L], []float64{0, 0, nan, 0}, 1e-9)

	if _, err := LightCurve(ds); !errors.Is(err, ErrNoProducts) {
		t.Errorf("expected ErrNoProducts, got %v", err)
	}
	if _, err := LightCurve(ds, "W"); !errors.Is(err, stokes.ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
}

func TestSpectrum(t *testing.T) {
	sp, err := Spectrum(build(t, false), stokes.I, stokes.V)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, sp.X, []float64{1000, 1005}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, sp.Values[stokes.I], []float64{1000, 1000}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, sp.Errors[stokes.I], []float64{0, 0}, 1e-9)
}

func TestPolarizationAngle(t *testing.T) {
	pa := PolarizationAngle(build(t, false), DefaultAngleSigma)
	testutil.RequireSliceNearlyEqual(t, pa, []float64{45, 45, math.NaN(), 45}, 1e-9)

	// U cancels across the band, leaving |mean L| = 0 against a spread of
	// 200 mJy.
	pa = PolarizationAngle(build(t, true), DefaultAngleSigma)
	for i, v := range pa {
		if !math.IsNaN(v) {
			t.Errorf("angle %d = %v, want masked", i, v)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	ds := build(t, false)
	lc, err := LightCurve(ds, stokes.I)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := lc.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("%d records, want header + 3 rows without the flagged bin", len(records))
	}
	want := []string{"time", "flux_density_I", "flux_density_I_err"}
	for i, h := range want {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	stamp := dynspec.MJDSecondsToTime(5e9).Add(7500 * time.Millisecond).Format(time.DateTime + ".000")
	if records[2][0] != stamp {
		t.Errorf("time = %q, want %q", records[2][0], stamp)
	}
	if v, _ := strconv.ParseFloat(records[1][1], 64); math.Abs(v-1000) > 1e-9 {
		t.Errorf("flux = %q", records[1][1])
	}

	sp, _ := Spectrum(ds, stokes.I)
	buf.Reset()
	if err := sp.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, _ = csv.NewReader(&buf).ReadAll()
	if records[0][0] != "frequency" || records[1][0] != "1000" {
		t.Errorf("spectrum records = %v", records)
	}
}
