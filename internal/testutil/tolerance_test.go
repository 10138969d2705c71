package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dynspec/grid"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []float64{1.0, 2.0, 3.0}
	b := []float64{1.0, 2.1, 3.0}

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	_, err := MaxAbsDiff([]float64{1}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestMaxAbsDiffSkipsNaN(t *testing.T) {
	d, err := MaxAbsDiff([]float64{math.NaN(), 1}, []float64{5, 1})
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}
	if d != 0 {
		t.Fatalf("MaxAbsDiff = %v, want 0 when only NaN positions differ", d)
	}
}

func TestRealSumIgnoresMissing(t *testing.T) {
	g, _ := grid.ComplexFromRows([][]complex128{{1 + 5i, grid.NaN()}, {2, 3}})
	if got := RealSum(g); got != 6 {
		t.Fatalf("RealSum = %v, want 6", got)
	}
}
