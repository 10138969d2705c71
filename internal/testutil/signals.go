package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dynspec/grid"
)

// DeterministicSine generates a sine with the given period in samples.
func DeterministicSine(period, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi / period
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// Ramp returns start, start+step, ... with n entries.
func Ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// ConstantGrid returns a rows x cols complex array filled with v.
func ConstantGrid(rows, cols int, v complex128) *grid.Complex {
	g := grid.NewComplex(rows, cols)
	g.Fill(v)
	return g
}

// NoisyGrid returns a complex array whose real part is signal plus noise and
// whose imaginary part is an independent zero-mean noise proxy.
func NoisyGrid(seed int64, rows, cols int, signal, sigma float64) *grid.Complex {
	rng := rand.New(rand.NewSource(seed))
	g := grid.NewComplex(rows, cols)
	for i := range g.Data {
		g.Data[i] = complex(signal+sigma*rng.NormFloat64(), sigma*rng.NormFloat64())
	}
	return g
}

// RowProfileGrid returns a rows x cols real array where every column carries
// profile(row).
func RowProfileGrid(rows, cols int, profile func(row int) float64) *grid.Real {
	g := grid.NewReal(rows, cols)
	for r := 0; r < rows; r++ {
		v := profile(r)
		for c := 0; c < cols; c++ {
			g.Set(r, c, v)
		}
	}
	return g
}
