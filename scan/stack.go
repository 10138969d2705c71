package scan

import (
	"fmt"

	"github.com/cwbudde/algo-dynspec/grid"
)

// Stack reassembles the segments of every plane into one continuous grid.
// When insertGaps is set, each segment is followed by as many all-NaN rows
// as its break spans in correlator cycles. All planes are handled together
// so their shapes stay identical.
func Stack(t []float64, iv Intervals, insertGaps bool, planes ...*grid.Complex) ([]*grid.Complex, error) {
	if len(planes) == 0 {
		return nil, nil
	}
	ref := planes[0]
	for i, p := range planes[1:] {
		if !p.SameShape(ref) {
			return nil, fmt.Errorf("scan: plane %d: %w: %dx%d vs %dx%d",
				i+1, grid.ErrShapeMismatch, p.Rows, p.Cols, ref.Rows, ref.Cols)
		}
	}
	if len(t) != ref.Rows {
		return nil, fmt.Errorf("scan: %w: %d time samples for %d rows", grid.ErrShapeMismatch, len(t), ref.Rows)
	}

	breaks := make([]int, len(iv.Segments))
	if insertGaps {
		var err error
		breaks, err = BreakCycles(t, iv)
		if err != nil {
			return nil, err
		}
	}

	out := make([]*grid.Complex, len(planes))
	for i, p := range planes {
		parts := make([]*grid.Complex, 0, 2*len(iv.Segments))
		for k, seg := range iv.Segments {
			chunk, err := p.SliceRows(seg.Start, seg.End+1)
			if err != nil {
				return nil, fmt.Errorf("scan: segment %d: %w", k, err)
			}
			parts = append(parts, chunk)
			if breaks[k] > 0 {
				parts = append(parts, grid.NaNComplex(breaks[k], p.Cols))
			}
		}
		stacked, err := grid.VStack(parts...)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[i] = stacked
	}
	return out, nil
}

// StackTimes returns the time axis matching the rows produced by Stack.
// Placeholder rows are spread evenly across their break so the axis stays
// strictly increasing.
func StackTimes(t []float64, iv Intervals, insertGaps bool) ([]float64, error) {
	breaks := make([]int, len(iv.Segments))
	if insertGaps {
		var err error
		breaks, err = BreakCycles(t, iv)
		if err != nil {
			return nil, err
		}
	}

	out := make([]float64, 0, len(t))
	for k, seg := range iv.Segments {
		if seg.Start < 0 || seg.End >= len(t) || seg.Start > seg.End {
			return nil, fmt.Errorf("scan: segment %d: %w", k, grid.ErrOutOfRange)
		}
		out = append(out, t[seg.Start:seg.End+1]...)
		if n := breaks[k]; n > 0 {
			end := t[seg.End]
			step := (t[iv.Segments[k+1].Start] - end) / float64(n+1)
			for j := 1; j <= n; j++ {
				out = append(out, end+float64(j)*step)
			}
		}
	}
	return out, nil
}
