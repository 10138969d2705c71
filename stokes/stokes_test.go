package stokes

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-dynspec/fold"
	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/internal/testutil"
	"github.com/cwbudde/algo-dynspec/rm"
)

func single(v complex128) *grid.Complex {
	g := grid.NewComplex(1, 1)
	g.Data[0] = v
	return g
}

func TestConvertCell(t *testing.T) {
	xx := single(complex(5, 0.1))
	yy := single(complex(3, -0.1))
	xy := single(complex(1, 0.5))
	yx := single(complex(2, 0.3))

	p, err := Convert(xx, xy, yx, yy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  complex128
		want complex128
	}{
		{"I", p.I.Complex().Data[0], complex(4, 0)},
		{"Q", p.Q.Complex().Data[0], complex(1, 0.1)},
		{"U", p.U.Complex().Data[0], complex(1.5, 0.4)},
		// i·((2+0.3i) - (1+0.5i))/2 = i·(0.5-0.1i) = 0.1+0.5i
		{"V", p.V.Complex().Data[0], complex(0.1, 0.5)},
		{"L", p.L.Data[0], complex(1, 1.5)},
		{"Li", p.Li.Data[0], complex(0.1, 0.4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := tt.got - tt.want; math.Hypot(real(d), imag(d)) > 1e-12 {
				t.Fatalf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	wantP := math.Sqrt(1+1.5*1.5+0.1*0.1) / 4
	if got := p.P.Data[0]; math.Abs(got-wantP) > 1e-12 {
		t.Errorf("P = %v, want %v", got, wantP)
	}
	wantPA := 0.5 * math.Atan2(1.5, 1) * 180 / math.Pi
	if got := p.PA.Data[0]; math.Abs(got-wantPA) > 1e-12 {
		t.Errorf("PA = %v, want %v", got, wantPA)
	}
}

func TestConvertShapeMismatch(t *testing.T) {
	a := grid.NewComplex(2, 2)
	b := grid.NewComplex(2, 3)
	if _, err := Convert(a, a, a, b); !errors.Is(err, grid.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestConvertPropagatesNaN(t *testing.T) {
	planes := make([]*grid.Complex, 4)
	for k := range planes {
		planes[k] = testutil.NoisyGrid(int64(k+1), 6, 5, 10, 1)
		planes[k].Set(2, 3, grid.NaN())
		planes[k].Set(5, 0, grid.NaN())
	}
	p, err := Convert(planes[0], planes[1], planes[2], planes[3])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range Names {
		re, err := p.Real(n)
		if err != nil {
			t.Fatalf("Real(%s): %v", n, err)
		}
		rows, cols := re.Shape()
		if rows != 6 || cols != 5 {
			t.Fatalf("%s shape = %dx%d, want 6x5", n, rows, cols)
		}
		for _, rc := range [][2]int{{2, 3}, {5, 0}} {
			if v := re.At(rc[0], rc[1]); !math.IsNaN(v) {
				t.Errorf("%s(%d,%d) = %v, want NaN", n, rc[0], rc[1], v)
			}
		}
		if got := re.CountNaN(); got != 2 {
			t.Errorf("%s has %d NaN cells, want 2", n, got)
		}
	}
}

func TestPolarisationAngleRange(t *testing.T) {
	for _, q := range []float64{-2, -1, 0, 1, 2} {
		for _, u := range []float64{-2, -1, 0, 1, 2} {
			xx := single(complex(10+q, 0))
			yy := single(complex(10-q, 0))
			xy := single(complex(u, 0))
			p, err := Convert(xx, xy, xy.Clone(), yy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pa := p.PA.Data[0]; pa <= -90 || pa > 90 {
				t.Errorf("PA(q=%v, u=%v) = %v outside (-90, 90]", q, u, pa)
			}
		}
	}
}

func TestDerotateRestoresAngle(t *testing.T) {
	freq := testutil.Ramp(1200, 4, 32)
	const (
		depth = -35.0
		chi0  = 0.25
	)
	xx := grid.NewComplex(3, len(freq))
	yy := grid.NewComplex(3, len(freq))
	xy := grid.NewComplex(3, len(freq))
	for r := 0; r < 3; r++ {
		for c, f := range freq {
			lam := rm.Wavelength(f)
			chi := chi0 + depth*lam*lam
			q, u := 2*math.Cos(2*chi), 2*math.Sin(2*chi)
			xx.Set(r, c, complex(10+q, 0.2))
			yy.Set(r, c, complex(10-q, 0.2))
			xy.Set(r, c, complex(u, -0.1))
		}
	}
	p, err := Convert(xx, xy, xy.Clone(), yy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Derotate(depth, freq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := chi0 * 180 / math.Pi
	for k, pa := range p.PA.Data {
		if math.Abs(pa-want) > 1e-9 {
			t.Fatalf("PA[%d] = %v, want %v", k, pa, want)
		}
	}
	if got := p.L.Data[0]; math.Abs(real(got)-p.Q.Value.Data[0]) > 0 || math.Abs(imag(got)-p.U.Value.Data[0]) > 0 {
		t.Errorf("L = %v does not match rebuilt Q/U", got)
	}

	if err := p.Derotate(math.NaN(), freq); !errors.Is(err, rm.ErrNoRotationMeasure) {
		t.Errorf("expected ErrNoRotationMeasure, got %v", err)
	}
}

func TestFoldKeepsPlanesAligned(t *testing.T) {
	g := testutil.NoisyGrid(7, 16, 3, 5, 0.5)
	p, err := Convert(g, g, g, g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := fold.New(4, 1, fold.WithPeriods(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Fold(f)

	for _, n := range Names {
		re, _ := p.Real(n)
		if re.Rows != 8 || re.Cols != 3 {
			t.Errorf("%s shape = %dx%d, want 8x3", n, re.Rows, re.Cols)
		}
	}
	if p.Li.Rows != 8 || p.I.Noise.Rows != 8 {
		t.Errorf("noise planes not folded")
	}
}

func TestProductAccessors(t *testing.T) {
	p, err := Convert(single(1), single(0), single(0), single(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Real("W"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
	if _, err := ParseName("X"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("expected ErrUnknownName, got %v", err)
	}
	if n, err := ParseName("PA"); err != nil || n != PA {
		t.Errorf("ParseName(PA) = %v, %v", n, err)
	}

	c, err := p.Complex(P)
	if err != nil || imag(c.Data[0]) != 0 {
		t.Errorf("Complex(P) = %v, %v", c, err)
	}

	re, _ := p.Real(I)
	re.Data[0] = 99
	if p.I.Value.Data[0] == 99 {
		t.Error("Real returned a view instead of a copy")
	}
}
