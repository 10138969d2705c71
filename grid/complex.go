package grid

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

var (
	// ErrShapeMismatch indicates that two arrays do not share a shape.
	ErrShapeMismatch = errors.New("grid: shape mismatch")
	// ErrOutOfRange indicates an invalid row or column range.
	ErrOutOfRange = errors.New("grid: index out of range")
)

// NaN returns the complex not-a-number used to mark missing samples.
func NaN() complex128 {
	return complex(math.NaN(), math.NaN())
}

// IsNaN reports whether either component of v is NaN.
func IsNaN(v complex128) bool {
	return math.IsNaN(real(v)) || math.IsNaN(imag(v))
}

// Complex is a row-major complex array.
type Complex struct {
	Rows int
	Cols int
	Data []complex128
}

// NewComplex returns a zero-filled rows x cols array.
func NewComplex(rows, cols int) *Complex {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("grid: negative shape %dx%d", rows, cols))
	}
	return &Complex{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// NaNComplex returns a rows x cols array with every cell missing.
func NaNComplex(rows, cols int) *Complex {
	g := NewComplex(rows, cols)
	g.Fill(NaN())
	return g
}

// ComplexFromRows builds an array from nested row slices. All rows must have
// equal length.
func ComplexFromRows(rows [][]complex128) (*Complex, error) {
	if len(rows) == 0 {
		return NewComplex(0, 0), nil
	}
	cols := len(rows[0])
	g := NewComplex(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, r, len(row), cols)
		}
		copy(g.Row(r), row)
	}
	return g, nil
}

// Shape returns the row and column counts.
func (g *Complex) Shape() (int, int) { return g.Rows, g.Cols }

// At returns the value at row r, column c.
func (g *Complex) At(r, c int) complex128 { return g.Data[r*g.Cols+c] }

// Set stores v at row r, column c.
func (g *Complex) Set(r, c int, v complex128) { g.Data[r*g.Cols+c] = v }

// Row returns the backing slice of row r.
func (g *Complex) Row(r int) []complex128 {
	return g.Data[r*g.Cols : (r+1)*g.Cols]
}

// Fill sets every cell to v.
func (g *Complex) Fill(v complex128) {
	for i := range g.Data {
		g.Data[i] = v
	}
}

// Clone returns a deep copy.
func (g *Complex) Clone() *Complex {
	out := &Complex{Rows: g.Rows, Cols: g.Cols, Data: make([]complex128, len(g.Data))}
	copy(out.Data, g.Data)
	return out
}

// SameShape reports whether g and o have identical dimensions.
func (g *Complex) SameShape(o *Complex) bool {
	return g.Rows == o.Rows && g.Cols == o.Cols
}

// Real returns the real components as a new array.
func (g *Complex) Real() *Real {
	out := NewReal(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = real(v)
	}
	return out
}

// Imag returns the imaginary components as a new array.
func (g *Complex) Imag() *Real {
	out := NewReal(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = imag(v)
	}
	return out
}

// Abs returns the magnitude of every cell.
func (g *Complex) Abs() *Real {
	out := NewReal(g.Rows, g.Cols)
	for i, v := range g.Data {
		out.Data[i] = cmplx.Abs(v)
	}
	return out
}

// Scale multiplies every cell by s in place.
func (g *Complex) Scale(s complex128) {
	for i := range g.Data {
		g.Data[i] *= s
	}
}

// ZeroNaN replaces missing cells with exact zero in place.
func (g *Complex) ZeroNaN() {
	for i, v := range g.Data {
		if IsNaN(v) {
			g.Data[i] = 0
		}
	}
}

// RestoreNaN replaces exact complex zeros with NaN in place and returns the
// number of restored cells.
func (g *Complex) RestoreNaN() int {
	n := 0
	for i, v := range g.Data {
		if v == 0 {
			g.Data[i] = NaN()
			n++
		}
	}
	return n
}

// CountNaN returns the number of missing cells.
func (g *Complex) CountNaN() int {
	n := 0
	for _, v := range g.Data {
		if IsNaN(v) {
			n++
		}
	}
	return n
}

// SliceRows returns a copy of rows [lo, hi).
func (g *Complex) SliceRows(lo, hi int) (*Complex, error) {
	if lo < 0 || hi > g.Rows || lo > hi {
		return nil, fmt.Errorf("%w: rows [%d,%d) of %d", ErrOutOfRange, lo, hi, g.Rows)
	}
	out := NewComplex(hi-lo, g.Cols)
	copy(out.Data, g.Data[lo*g.Cols:hi*g.Cols])
	return out, nil
}

// SliceCols returns a copy of columns [lo, hi).
func (g *Complex) SliceCols(lo, hi int) (*Complex, error) {
	if lo < 0 || hi > g.Cols || lo > hi {
		return nil, fmt.Errorf("%w: cols [%d,%d) of %d", ErrOutOfRange, lo, hi, g.Cols)
	}
	out := NewComplex(g.Rows, hi-lo)
	for r := 0; r < g.Rows; r++ {
		copy(out.Row(r), g.Row(r)[lo:hi])
	}
	return out, nil
}

// FlipCols reverses the column order of every row in place.
func (g *Complex) FlipCols() {
	for r := 0; r < g.Rows; r++ {
		row := g.Row(r)
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
}

// VStack concatenates arrays along the row axis. Every array must have the
// same column count.
func VStack(parts ...*Complex) (*Complex, error) {
	if len(parts) == 0 {
		return NewComplex(0, 0), nil
	}
	cols := parts[0].Cols
	rows := 0
	for i, p := range parts {
		if p.Cols != cols {
			return nil, fmt.Errorf("%w: part %d has %d columns, want %d", ErrShapeMismatch, i, p.Cols, cols)
		}
		rows += p.Rows
	}
	out := NewComplex(rows, cols)
	off := 0
	for _, p := range parts {
		off += copy(out.Data[off:], p.Data)
	}
	return out, nil
}

// FromParts combines separate real and imaginary arrays.
func FromParts(re, im *Real) (*Complex, error) {
	if re.Rows != im.Rows || re.Cols != im.Cols {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, re.Rows, re.Cols, im.Rows, im.Cols)
	}
	out := NewComplex(re.Rows, re.Cols)
	for i := range out.Data {
		out.Data[i] = complex(re.Data[i], im.Data[i])
	}
	return out, nil
}

// TileRows repeats the array n times along the row axis.
func (g *Complex) TileRows(n int) *Complex {
	if n < 1 {
		n = 1
	}
	out := NewComplex(g.Rows*n, g.Cols)
	for i := 0; i < n; i++ {
		copy(out.Data[i*len(g.Data):], g.Data)
	}
	return out
}
