// Package acf computes two-dimensional autocorrelations of dynamic spectra
// as a diagnostic of characteristic time and frequency structure scales.
package acf

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-dynspec/grid"
)

var (
	// ErrEmptyInput indicates an array without cells.
	ErrEmptyInput = errors.New("acf: empty input")
	// ErrDegenerate indicates an input whose autocorrelation is zero
	// everywhere, such as an all-NaN plane.
	ErrDegenerate = errors.New("acf: autocorrelation is identically zero")
)

// Result holds the normalised non-negative lag quadrant of an
// autocorrelation.
type Result struct {
	// Lags[τ][ν] is the correlation at time lag τ rows and frequency lag ν
	// channels. Lags[0][0] is 1.
	Lags *grid.Real
}

// AutoCorrelate2D returns the autocorrelation of g for non-negative time and
// frequency lags. NaN cells contribute zero.
//
// The correlation is computed as IFFT(|FFT(x)|²) over a zero-padded array of
// at least (2R-1)x(2C-1) cells, which makes the circular correlation equal to
// the linear one on the retained quadrant.
func AutoCorrelate2D(g *grid.Real) (*Result, error) {
	rows, cols := g.Shape()
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyInput
	}

	padRows := nextPowerOf2(2*rows - 1)
	padCols := nextPowerOf2(2*cols - 1)

	rowPlan, err := algofft.NewPlan64(padCols)
	if err != nil {
		return nil, fmt.Errorf("acf: failed to create FFT plan: %w", err)
	}
	colPlan := rowPlan
	if padRows != padCols {
		colPlan, err = algofft.NewPlan64(padRows)
		if err != nil {
			return nil, fmt.Errorf("acf: failed to create FFT plan: %w", err)
		}
	}

	// Row-major padded spectrum.
	spec := make([]complex128, padRows*padCols)
	for r := 0; r < rows; r++ {
		for c, v := range g.Row(r) {
			if !math.IsNaN(v) {
				spec[r*padCols+c] = complex(v, 0)
			}
		}
	}

	line := make([]complex128, max(padRows, padCols))
	out := make([]complex128, max(padRows, padCols))

	// Forward: rows holding data, then every column.
	for r := 0; r < rows; r++ {
		row := spec[r*padCols : (r+1)*padCols]
		if err := rowPlan.Forward(out[:padCols], row); err != nil {
			return nil, fmt.Errorf("acf: forward FFT failed: %w", err)
		}
		copy(row, out[:padCols])
	}
	if err := transformColumns(colPlan, spec, padRows, padCols, line, out, false); err != nil {
		return nil, err
	}

	for k, v := range spec {
		spec[k] = complex(real(v)*real(v)+imag(v)*imag(v), 0)
	}

	// Inverse: every column, then only the rows that are kept.
	if err := transformColumns(colPlan, spec, padRows, padCols, line, out, true); err != nil {
		return nil, err
	}
	lags := grid.NewReal(rows, cols)
	for r := 0; r < rows; r++ {
		row := spec[r*padCols : (r+1)*padCols]
		if err := rowPlan.Inverse(out[:padCols], row); err != nil {
			return nil, fmt.Errorf("acf: inverse FFT failed: %w", err)
		}
		dst := lags.Row(r)
		for c := range dst {
			dst[c] = real(out[c])
		}
	}

	peak, ok := lags.Max()
	if !ok || peak <= 0 {
		return nil, ErrDegenerate
	}
	for k := range lags.Data {
		lags.Data[k] /= peak
	}
	return &Result{Lags: lags}, nil
}

func transformColumns(plan *algofft.Plan[complex128], spec []complex128, rows, cols int, line, out []complex128, inverse bool) error {
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			line[r] = spec[r*cols+c]
		}
		var err error
		if inverse {
			err = plan.Inverse(out[:rows], line[:rows])
		} else {
			err = plan.Forward(out[:rows], line[:rows])
		}
		if err != nil {
			return fmt.Errorf("acf: column FFT failed: %w", err)
		}
		for r := 0; r < rows; r++ {
			spec[r*cols+c] = out[r]
		}
	}
	return nil
}

// Image returns the quadrant in plotting orientation: row k holds frequency
// lag Cols-1-k and column τ holds time lag τ, so the zero-lag cell sits in
// the bottom-left corner.
func (r *Result) Image() *grid.Real {
	img := r.Lags.Clone()
	img.FlipCols()
	return img.Transpose()
}

// ZeroFrequencyTrace returns the correlation at zero frequency lag for time
// lags 1 and up.
func (r *Result) ZeroFrequencyTrace() []float64 {
	col := r.Lags.Col(0)
	if len(col) == 0 {
		return nil
	}
	return col[1:]
}

// nextPowerOf2 returns the smallest power of two >= n, at least 2.
func nextPowerOf2(n int) int {
	p := 2
	for p < n {
		p *= 2
	}
	return p
}
