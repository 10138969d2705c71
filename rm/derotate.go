package rm

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dynspec/grid"
)

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

// Wavelength returns the wavelength in metres of a frequency in MHz.
func Wavelength(freqMHz float64) float64 {
	return SpeedOfLight / (freqMHz * 1e6)
}

// LambdaSquared returns λ² in m² for every channel.
func LambdaSquared(freqMHz []float64) []float64 {
	out := make([]float64, len(freqMHz))
	for i, f := range freqMHz {
		lam := Wavelength(f)
		out[i] = lam * lam
	}
	return out
}

// Derotate multiplies every channel of l by exp(-2i·rm·λ²). Missing cells
// stay missing.
func Derotate(l *grid.Complex, rm float64, freqMHz []float64) (*grid.Complex, error) {
	if len(freqMHz) != l.Cols {
		return nil, fmt.Errorf("rm: %w: %d channels for %d columns", grid.ErrShapeMismatch, len(freqMHz), l.Cols)
	}
	if math.IsNaN(rm) {
		return nil, ErrNoRotationMeasure
	}

	phasors := make([]complex128, len(freqMHz))
	for c, l2 := range LambdaSquared(freqMHz) {
		phasors[c] = cmplx.Exp(complex(0, -2*rm*l2))
	}

	out := l.Clone()
	for r := 0; r < out.Rows; r++ {
		row := out.Row(r)
		for c := range row {
			row[c] *= phasors[c]
		}
	}
	return out, nil
}
