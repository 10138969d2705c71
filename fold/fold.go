// Package fold averages time/frequency arrays onto a known period.
package fold

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dynspec/grid"
)

// DefaultPeriods is the number of folded periods tiled for display.
const DefaultPeriods = 2

var (
	// ErrNoPeriod indicates folding without a positive period.
	ErrNoPeriod = errors.New("fold: period must be > 0")
	// ErrInvalidPixel indicates a non-positive pixel duration.
	ErrInvalidPixel = errors.New("fold: pixel duration must be > 0")
)

// Option configures a Folder.
type Option func(*Folder)

// WithOffset shifts phase zero by offset periods.
func WithOffset(offset float64) Option {
	return func(f *Folder) {
		f.offset = offset
	}
}

// WithPeriods sets how many folded periods are tiled in the output.
func WithPeriods(n int) Option {
	return func(f *Folder) {
		if n > 0 {
			f.periods = n
		}
	}
}

// Folder folds arrays whose rows are spaced pixelDuration apart.
type Folder struct {
	period  float64
	pixel   float64
	offset  float64
	periods int
}

// New returns a Folder for the given period and row spacing, both in the
// same time unit.
func New(period, pixelDuration float64, opts ...Option) (*Folder, error) {
	if !(period > 0) {
		return nil, fmt.Errorf("%w: %v", ErrNoPeriod, period)
	}
	if !(pixelDuration > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPixel, pixelDuration)
	}
	f := &Folder{period: period, pixel: pixelDuration, periods: DefaultPeriods}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Periods returns the number of tiled periods.
func (f *Folder) Periods() int { return f.periods }

// ChunkLength returns the number of rows in one period for an array of the
// given row count, clamped to [1, rows].
func (f *Folder) ChunkLength(rows int) int {
	chunk := int(math.Floor(f.period / f.pixel))
	if chunk > rows {
		chunk = rows
	}
	if chunk < 1 {
		chunk = 1
	}
	return chunk
}

// Padding returns the number of NaN rows placed before and after an array
// of the given row count so that phase zero sits at the chunk centre and the
// padded length is a multiple of the chunk length.
func (f *Folder) Padding(rows int) (left, right int) {
	chunk := f.ChunkLength(rows)
	left = int(math.Floor((0.5 + f.offset) * f.period / f.pixel))
	if left < 0 {
		left = 0
	}
	right = chunk - (left+rows)%chunk
	return left, right
}

// Padded rows never carry data, so the fold accumulates each input row
// directly into phase (left+r) mod chunk instead of materialising them.

// Real folds g and returns chunk*Periods rows.
func (f *Folder) Real(g *grid.Real) *grid.Real {
	chunk := f.ChunkLength(g.Rows)
	left, _ := f.Padding(g.Rows)

	sum := grid.NewReal(chunk, g.Cols)
	count := make([]int, chunk*g.Cols)
	for r := 0; r < g.Rows; r++ {
		phase := (left + r) % chunk
		src := g.Row(r)
		dst := sum.Row(phase)
		for c, v := range src {
			if math.IsNaN(v) {
				continue
			}
			dst[c] += v
			count[phase*g.Cols+c]++
		}
	}

	for i := range sum.Data {
		if count[i] == 0 {
			sum.Data[i] = math.NaN()
			continue
		}
		sum.Data[i] /= float64(count[i])
	}
	return sum.TileRows(f.periods)
}

// Complex folds g, treating a cell as missing when either component is NaN.
func (f *Folder) Complex(g *grid.Complex) *grid.Complex {
	chunk := f.ChunkLength(g.Rows)
	left, _ := f.Padding(g.Rows)

	sum := grid.NewComplex(chunk, g.Cols)
	count := make([]int, chunk*g.Cols)
	for r := 0; r < g.Rows; r++ {
		phase := (left + r) % chunk
		src := g.Row(r)
		dst := sum.Row(phase)
		for c, v := range src {
			if grid.IsNaN(v) {
				continue
			}
			dst[c] += v
			count[phase*g.Cols+c]++
		}
	}

	for i := range sum.Data {
		if count[i] == 0 {
			sum.Data[i] = grid.NaN()
			continue
		}
		sum.Data[i] /= complex(float64(count[i]), 0)
	}
	return sum.TileRows(f.periods)
}
