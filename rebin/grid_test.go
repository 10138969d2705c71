package rebin

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/internal/testutil"
)

func TestGridSameShapeRestoresNaN(t *testing.T) {
	g, _ := grid.ComplexFromRows([][]complex128{{1 + 1i, 0}, {2, 3i}})

	out, err := Grid(g, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !grid.IsNaN(out.At(0, 1)) {
		t.Errorf("exact zero should become NaN, got %v", out.At(0, 1))
	}
	if out.At(1, 1) != 3i || out.At(0, 0) != 1+1i {
		t.Errorf("values changed: %v", out.Data)
	}
	if g.At(0, 1) != 0 {
		t.Error("input must not be modified")
	}
}

func TestGridUpsampleFails(t *testing.T) {
	g := grid.NewComplex(4, 4)
	for _, shape := range [][2]int{{5, 4}, {4, 5}, {2, 8}} {
		if _, err := Grid(g, shape[0], shape[1]); !errors.Is(err, ErrUpsample) {
			t.Errorf("shape %v: expected ErrUpsample, got %v", shape, err)
		}
	}
}

func TestGridConservesFlux(t *testing.T) {
	g := testutil.NoisyGrid(11, 30, 20, 5, 1)

	out, err := Grid(g, 10, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows != 10 || out.Cols != 7 {
		t.Fatalf("shape = %dx%d, want 10x7", out.Rows, out.Cols)
	}

	in := testutil.RealSum(g)
	scale := (30.0 / 10.0) * (20.0 / 7.0)
	if got := testutil.RealSum(out) * scale; math.Abs(got-in) > 1e-8*math.Abs(in) {
		t.Fatalf("rebinned flux %v, input flux %v", got, in)
	}
}

func TestGridMissingCells(t *testing.T) {
	g := testutil.ConstantGrid(4, 4, 2+1i)
	for c := 0; c < 4; c++ {
		g.Set(0, c, grid.NaN())
		g.Set(1, c, grid.NaN())
	}

	out, err := Grid(g, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for c := 0; c < 2; c++ {
		if !grid.IsNaN(out.At(0, c)) {
			t.Errorf("bin (0,%d) received no data but is %v", c, out.At(0, c))
		}
		if out.At(1, c) != 2+1i {
			t.Errorf("bin (1,%d) = %v, want 2+1i", c, out.At(1, c))
		}
	}
}

func TestGridOnesStayOnes(t *testing.T) {
	g := testutil.ConstantGrid(9, 6, 1)
	out, err := Grid(g, 4, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.RequireComplexNearlyEqual(t, out, testutil.ConstantGrid(4, 5, 1), 1e-12)
}
