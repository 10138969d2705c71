package rebin

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrUpsample indicates a requested length larger than the input length.
	ErrUpsample = errors.New("rebin: new shape must not exceed old shape")
	// ErrInvalidSize indicates a negative axis length.
	ErrInvalidSize = errors.New("rebin: invalid axis length")
	// ErrLengthMismatch indicates buffers that do not match the operator.
	ErrLengthMismatch = errors.New("rebin: buffer length mismatch")
)

type span struct {
	start   int
	weights []float64
}

// Operator is a banded n x o compression matrix stored row by row.
type Operator struct {
	old  int
	new  int
	rows []span
}

// New builds the compression operator from o input cells onto n output bins.
//
// The matrix is produced by a single sweep over input columns and output
// rows. Each row starts with a budget of one; each column contributes the
// compression ratio n/o, and when a column would overdraw the row budget the
// remainder spills into the next row.
func New(o, n int) (*Operator, error) {
	if o < 0 || n < 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidSize, o, n)
	}
	if n > o {
		return nil, fmt.Errorf("%w: %d -> %d", ErrUpsample, o, n)
	}

	op := &Operator{old: o, new: n, rows: make([]span, n)}
	if n == 0 || o == 0 {
		return op, nil
	}

	ratio := float64(n) / float64(o)

	nrow, ncol := 0, 0
	budget := 1.0
	overflow := 0.0

	for nrow < n && ncol < o {
		var value float64
		rowShift, colShift := 0, 0

		switch {
		case overflow > 0:
			// Spend what spilled over from the previous row.
			value = overflow
			overflow = 0
			budget -= value
			colShift = 1
		case budget < ratio:
			// Close the row with whatever budget is left.
			value = budget
			overflow = ratio - budget
			budget = 1
			rowShift = 1
		default:
			value = ratio
			budget -= value
			colShift = 1
		}

		op.put(nrow, ncol, value)
		nrow += rowShift
		ncol += colShift
	}

	return op, nil
}

func (op *Operator) put(row, col int, value float64) {
	s := &op.rows[row]
	if s.weights == nil {
		s.start = col
	}
	// Columns arrive in increasing order within a row.
	s.weights = append(s.weights, value)
}

// OldLen returns the input axis length.
func (op *Operator) OldLen() int { return op.old }

// NewLen returns the output axis length.
func (op *Operator) NewLen() int { return op.new }

// Row returns the first input column contributing to output row i and the
// contiguous weights starting there.
func (op *Operator) Row(i int) (start int, weights []float64) {
	s := op.rows[i]
	return s.start, s.weights
}

// Dense expands the operator into a full n x o matrix.
func (op *Operator) Dense() [][]float64 {
	out := make([][]float64, op.new)
	for i, s := range op.rows {
		out[i] = make([]float64, op.old)
		copy(out[i][s.start:], s.weights)
	}
	return out
}

// RowSums returns the total weight of every output row.
func (op *Operator) RowSums() []float64 {
	out := make([]float64, op.new)
	for i, s := range op.rows {
		for _, w := range s.weights {
			out[i] += w
		}
	}
	return out
}

// ColumnSums returns the total weight each input cell distributes.
func (op *Operator) ColumnSums() []float64 {
	out := make([]float64, op.old)
	for _, s := range op.rows {
		for k, w := range s.weights {
			out[s.start+k] += w
		}
	}
	return out
}

// Apply writes op·src into dst.
func (op *Operator) Apply(dst, src []float64) error {
	if len(src) != op.old || len(dst) != op.new {
		return fmt.Errorf("%w: src %d (want %d), dst %d (want %d)",
			ErrLengthMismatch, len(src), op.old, len(dst), op.new)
	}
	for i, s := range op.rows {
		var acc float64
		for k, w := range s.weights {
			acc += w * src[s.start+k]
		}
		dst[i] = acc
	}
	return nil
}

// ApplyComplex writes op·src into dst.
func (op *Operator) ApplyComplex(dst, src []complex128) error {
	if len(src) != op.old || len(dst) != op.new {
		return fmt.Errorf("%w: src %d (want %d), dst %d (want %d)",
			ErrLengthMismatch, len(src), op.old, len(dst), op.new)
	}
	for i, s := range op.rows {
		var acc complex128
		for k, w := range s.weights {
			acc += complex(w, 0) * src[s.start+k]
		}
		dst[i] = acc
	}
	return nil
}

// applyRows combines whole rows of a row-major rows x cols buffer:
// out row i = Σ_k w_k · in row (start+k).
func (op *Operator) applyRows(dst, src []float64, cols int) {
	tmp := make([]float64, cols)
	for i, s := range op.rows {
		out := dst[i*cols : (i+1)*cols]
		for j := range out {
			out[j] = 0
		}
		for k, w := range s.weights {
			if w == 0 {
				continue
			}
			r := s.start + k
			vecmath.ScaleBlock(tmp, src[r*cols:(r+1)*cols], w)
			vecmath.AddBlockInPlace(out, tmp)
		}
	}
}

// Axis rebins a one-dimensional axis (time stamps or channel centres) onto n
// bins using the weighted-average rows of the operator.
func Axis(values []float64, n int) ([]float64, error) {
	op, err := New(len(values), n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if err := op.Apply(out, values); err != nil {
		return nil, err
	}
	return out, nil
}
