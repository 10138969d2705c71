package rebin

import (
	"fmt"

	"github.com/cwbudde/algo-dynspec/grid"
)

// Grid rebins g onto rows x cols bins while conserving flux.
//
// Requesting the existing shape returns a copy with exact complex zeros
// converted to NaN. Requesting more rows or columns than g holds fails with
// [ErrUpsample]. Otherwise missing cells contribute zero mass, and output
// cells that end up exactly zero are marked missing.
func Grid(g *grid.Complex, rows, cols int) (*grid.Complex, error) {
	if rows == g.Rows && cols == g.Cols {
		out := g.Clone()
		out.RestoreNaN()
		return out, nil
	}
	if rows > g.Rows || cols > g.Cols {
		return nil, fmt.Errorf("%w: %dx%d -> %dx%d", ErrUpsample, g.Rows, g.Cols, rows, cols)
	}

	timeOp, err := New(g.Rows, rows)
	if err != nil {
		return nil, err
	}
	freqOp, err := New(g.Cols, cols)
	if err != nil {
		return nil, err
	}

	zeroed := g.Clone()
	zeroed.ZeroNaN()

	re := sandwich(timeOp, freqOp, zeroed.Real())
	im := sandwich(timeOp, freqOp, zeroed.Imag())

	out, err := grid.FromParts(re, im)
	if err != nil {
		return nil, err
	}
	out.RestoreNaN()
	return out, nil
}

// sandwich computes T·A·Fᵀ for a real array.
func sandwich(timeOp, freqOp *Operator, a *grid.Real) *grid.Real {
	// Time axis: combine rows.
	mid := grid.NewReal(timeOp.NewLen(), a.Cols)
	timeOp.applyRows(mid.Data, a.Data, a.Cols)

	// Frequency axis: combine rows of the transpose.
	midT := mid.Transpose()
	outT := grid.NewReal(freqOp.NewLen(), midT.Cols)
	freqOp.applyRows(outT.Data, midT.Data, midT.Cols)

	return outT.Transpose()
}
