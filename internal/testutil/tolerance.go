// Package testutil holds comparison helpers and synthetic dynamic spectra
// shared by package tests.
package testutil

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-dynspec/grid"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance). NaN matches NaN.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.IsNaN(got[i]) || math.IsNaN(want[i]) {
			if math.IsNaN(got[i]) != math.IsNaN(want[i]) {
				t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
			}
			continue
		}
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireRealNearlyEqual compares two real arrays cell by cell.
func RequireRealNearlyEqual(t *testing.T, got, want *grid.Real, eps float64) {
	t.Helper()
	if got.Rows != want.Rows || got.Cols != want.Cols {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Rows, got.Cols, want.Rows, want.Cols)
	}
	RequireSliceNearlyEqual(t, got.Data, want.Data, eps)
}

// RequireComplexNearlyEqual compares two complex arrays cell by cell. A
// missing cell only matches a missing cell.
func RequireComplexNearlyEqual(t *testing.T, got, want *grid.Complex, eps float64) {
	t.Helper()
	if got.Rows != want.Rows || got.Cols != want.Cols {
		t.Fatalf("shape mismatch: got %dx%d, want %dx%d", got.Rows, got.Cols, want.Rows, want.Cols)
	}
	for i := range got.Data {
		g, w := got.Data[i], want.Data[i]
		if grid.IsNaN(g) || grid.IsNaN(w) {
			if grid.IsNaN(g) != grid.IsNaN(w) {
				t.Fatalf("cell %d: got %v, want %v", i, g, w)
			}
			continue
		}
		if d := math.Hypot(real(g)-real(w), imag(g)-imag(w)); d > eps {
			t.Fatalf("cell %d: got %v, want %v (diff %v > eps %v)", i, g, w, d, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// MaxAbsDiff returns the maximum absolute difference between two slices,
// ignoring positions where either value is NaN.
// Returns an error if the slices differ in length.
func MaxAbsDiff(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	maxDiff := 0.0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff, nil
}

// RealSum returns the sum of the real parts of the non-missing cells.
func RealSum(g *grid.Complex) float64 {
	var sum float64
	for _, v := range g.Data {
		if !grid.IsNaN(v) {
			sum += real(v)
		}
	}
	return sum
}
