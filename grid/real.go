package grid

import (
	"fmt"
	"math"
)

// Real is a row-major float64 array.
type Real struct {
	Rows int
	Cols int
	Data []float64
}

// NewReal returns a zero-filled rows x cols array.
func NewReal(rows, cols int) *Real {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("grid: negative shape %dx%d", rows, cols))
	}
	return &Real{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// NaNReal returns a rows x cols array with every cell missing.
func NaNReal(rows, cols int) *Real {
	g := NewReal(rows, cols)
	g.Fill(math.NaN())
	return g
}

// RealFromRows builds an array from nested row slices.
func RealFromRows(rows [][]float64) (*Real, error) {
	if len(rows) == 0 {
		return NewReal(0, 0), nil
	}
	cols := len(rows[0])
	g := NewReal(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, r, len(row), cols)
		}
		copy(g.Row(r), row)
	}
	return g, nil
}

// Shape returns the row and column counts.
func (g *Real) Shape() (int, int) { return g.Rows, g.Cols }

// At returns the value at row r, column c.
func (g *Real) At(r, c int) float64 { return g.Data[r*g.Cols+c] }

// Set stores v at row r, column c.
func (g *Real) Set(r, c int, v float64) { g.Data[r*g.Cols+c] = v }

// Row returns the backing slice of row r.
func (g *Real) Row(r int) []float64 {
	return g.Data[r*g.Cols : (r+1)*g.Cols]
}

// Col returns a copy of column c.
func (g *Real) Col(c int) []float64 {
	out := make([]float64, g.Rows)
	for r := range out {
		out[r] = g.Data[r*g.Cols+c]
	}
	return out
}

// Fill sets every cell to v.
func (g *Real) Fill(v float64) {
	for i := range g.Data {
		g.Data[i] = v
	}
}

// Clone returns a deep copy.
func (g *Real) Clone() *Real {
	out := &Real{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// SameShape reports whether g and o have identical dimensions.
func (g *Real) SameShape(o *Real) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols
}

// ZeroNaN replaces NaN cells with zero in place.
func (g *Real) ZeroNaN() {
	for i, v := range g.Data {
		if math.IsNaN(v) {
			g.Data[i] = 0
		}
	}
}

// CountNaN returns the number of NaN cells.
func (g *Real) CountNaN() int {
	n := 0
	for _, v := range g.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Transpose returns a new cols x rows array.
func (g *Real) Transpose() *Real {
	out := NewReal(g.Cols, g.Rows)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			out.Data[c*g.Rows+r] = g.Data[r*g.Cols+c]
		}
	}
	return out
}

// FlipCols reverses the column order of every row in place.
func (g *Real) FlipCols() {
	for r := 0; r < g.Rows; r++ {
		row := g.Row(r)
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

// TileRows repeats the array n times along the row axis.
func (g *Real) TileRows(n int) *Real {
	if n < 1 {
		n = 1
	}
	out := NewReal(g.Rows*n, g.Cols)
	for i := 0; i < n; i++ {
		copy(out.Data[i*len(g.Data):], g.Data)
	}
	return out
}

// Max returns the largest non-NaN value and false when every cell is NaN.
func (g *Real) Max() (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, v := range g.Data {
		if math.IsNaN(v) {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}
