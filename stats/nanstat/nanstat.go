// Package nanstat provides reductions that skip NaN samples.
//
// An all-NaN or empty input yields NaN rather than an error: averaging an
// empty slice is an expected outcome of masked data, not a failure.
package nanstat

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-dynspec/grid"
)

// Sum returns the Kahan-compensated sum of the non-NaN values.
func Sum(x []float64) float64 {
	var sum, c float64
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum
}

// Count returns the number of non-NaN values.
func Count(x []float64) int {
	n := 0
	for _, v := range x {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Mean returns the mean of the non-NaN values.
func Mean(x []float64) float64 {
	n := Count(x)
	if n == 0 {
		return math.NaN()
	}
	return Sum(x) / float64(n)
}

// Std returns the population standard deviation of the non-NaN values.
func Std(x []float64) float64 {
	// Welford update, skipping NaN.
	var mean, m2 float64
	n := 0
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		n++
		delta := v - mean
		mean += delta / float64(n)
		m2 += delta * (v - mean)
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(m2 / float64(n))
}

// Median returns the median of the non-NaN values.
func Median(x []float64) float64 {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return 0.5 * (vals[mid-1] + vals[mid])
}

// ArgMax returns the index of the largest non-NaN value, or -1.
func ArgMax(x []float64) int {
	idx := -1
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > x[idx] {
			idx = i
		}
	}
	return idx
}

// ComplexMean returns the mean of cells where neither component is NaN.
func ComplexMean(x []complex128) complex128 {
	var sum complex128
	n := 0
	for _, v := range x {
		if grid.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return grid.NaN()
	}
	return sum / complex(float64(n), 0)
}

// ComplexStd returns sqrt(mean(|x - mean(x)|²)) over non-NaN cells.
func ComplexStd(x []complex128) float64 {
	mean := ComplexMean(x)
	if grid.IsNaN(mean) {
		return math.NaN()
	}
	var acc float64
	n := 0
	for _, v := range x {
		if grid.IsNaN(v) {
			continue
		}
		d := cmplx.Abs(v - mean)
		acc += d * d
		n++
	}
	return math.Sqrt(acc / float64(n))
}

// Axis selects the dimension a reduction collapses.
type Axis int

const (
	// AlongTime collapses rows, producing one value per column.
	AlongTime Axis = iota
	// AlongFrequency collapses columns, producing one value per row.
	AlongFrequency
)

// lanes returns the slices reduced by axis a.
func lanes(g *grid.Real, a Axis) [][]float64 {
	if a == AlongFrequency {
		out := make([][]float64, g.Rows)
		for r := range out {
			out[r] = g.Row(r)
		}
		return out
	}
	out := make([][]float64, g.Cols)
	for c := range out {
		out[c] = g.Col(c)
	}
	return out
}

// MeanAxis applies Mean along axis a.
func MeanAxis(g *grid.Real, a Axis) []float64 {
	ls := lanes(g, a)
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = Mean(l)
	}
	return out
}

// StdAxis applies Std along axis a.
func StdAxis(g *grid.Real, a Axis) []float64 {
	ls := lanes(g, a)
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = Std(l)
	}
	return out
}

func complexLanes(g *grid.Complex, a Axis) [][]complex128 {
	if a == AlongFrequency {
		out := make([][]complex128, g.Rows)
		for r := range out {
			out[r] = g.Row(r)
		}
		return out
	}
	out := make([][]complex128, g.Cols)
	for c := range out {
		lane := make([]complex128, g.Rows)
		for r := range lane {
			lane[r] = g.At(r, c)
		}
		out[c] = lane
	}
	return out
}

// ComplexMeanAxis applies ComplexMean along axis a.
func ComplexMeanAxis(g *grid.Complex, a Axis) []complex128 {
	ls := complexLanes(g, a)
	out := make([]complex128, len(ls))
	for i, l := range ls {
		out[i] = ComplexMean(l)
	}
	return out
}

// ComplexStdAxis applies ComplexStd along axis a.
func ComplexStdAxis(g *grid.Complex, a Axis) []float64 {
	ls := complexLanes(g, a)
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = ComplexStd(l)
	}
	return out
}
