package rebin

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dynspec/internal/testutil"
)

func TestNewFiveToThree(t *testing.T) {
	op, err := New(5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]float64{
		{0.6, 0.4, 0, 0, 0},
		{0, 0.2, 0.6, 0.2, 0},
		{0, 0, 0, 0.4, 0.6},
	}
	dense := op.Dense()
	for i := range want {
		testutil.RequireSliceNearlyEqual(t, dense[i], want[i], 1e-12)
	}
}

func TestOperatorConservesFlux(t *testing.T) {
	sizes := [][2]int{
		{5, 3}, {10, 10}, {7, 1}, {100, 33}, {64, 8}, {1000, 999}, {13, 12}, {3, 2},
	}
	for _, sz := range sizes {
		o, n := sz[0], sz[1]
		op, err := New(o, n)
		if err != nil {
			t.Fatalf("New(%d, %d): %v", o, n, err)
		}

		ratio := float64(n) / float64(o)
		for i, s := range op.RowSums() {
			if math.Abs(s-1) > 1e-9 {
				t.Errorf("New(%d, %d): row %d sums to %v, want 1", o, n, i, s)
			}
		}
		for j, s := range op.ColumnSums() {
			if math.Abs(s-ratio) > 1e-9 {
				t.Errorf("New(%d, %d): column %d sums to %v, want %v", o, n, j, s, ratio)
			}
		}

		ones := make([]float64, n)
		if err := op.Apply(ones, testutil.Ones(o)); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		testutil.RequireSliceNearlyEqual(t, ones, testutil.Ones(n), 1e-9)
	}
}

func TestOperatorRowsAreContiguous(t *testing.T) {
	op, err := New(100, 33)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prevEnd := 0
	for i := 0; i < op.NewLen(); i++ {
		start, w := op.Row(i)
		if start < prevEnd-1 || start > prevEnd {
			t.Fatalf("row %d starts at %d, previous row ended at %d", i, start, prevEnd)
		}
		for k, v := range w {
			if v < 0 {
				t.Fatalf("row %d weight %d negative: %v", i, k, v)
			}
		}
		prevEnd = start + len(w)
	}
	if prevEnd != 100 {
		t.Fatalf("last row ends at %d, want 100", prevEnd)
	}
}

func TestOperatorTotalMass(t *testing.T) {
	src := testutil.DeterministicNoise(3, 5, 97)
	op, _ := New(97, 20)
	dst := make([]float64, 20)
	if err := op.Apply(dst, src); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	var in, out float64
	for _, v := range src {
		in += v
	}
	for _, v := range dst {
		out += v
	}
	if math.Abs(out*97/20-in) > 1e-9 {
		t.Fatalf("scaled output mass %v, input mass %v", out*97/20, in)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(3, 4); !errors.Is(err, ErrUpsample) {
		t.Errorf("expected ErrUpsample, got %v", err)
	}
	if _, err := New(-1, 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestNewEmpty(t *testing.T) {
	op, err := New(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(op.Dense()) != 0 {
		t.Fatalf("empty operator should have no rows")
	}
}

func TestApplyLengthMismatch(t *testing.T) {
	op, _ := New(4, 2)
	if err := op.Apply(make([]float64, 2), make([]float64, 3)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestAxis(t *testing.T) {
	got, err := Axis([]float64{0, 1, 2, 3}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.5, 2.5}, 1e-12)
}
