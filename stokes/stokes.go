package stokes

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dynspec/fold"
	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/rm"
)

// Name identifies a derived product.
type Name string

// Derived products.
const (
	I  Name = "I"
	Q  Name = "Q"
	U  Name = "U"
	V  Name = "V"
	L  Name = "L"
	P  Name = "P"
	PA Name = "PA"
)

// Names lists every product in display order.
var Names = []Name{I, Q, U, V, L, P, PA}

// ErrUnknownName indicates a product name outside Names.
var ErrUnknownName = errors.New("stokes: unknown product")

// ParseName maps a case-sensitive product name to a Name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownName, s)
}

// Plane is a Stokes parameter split into its signal and noise proxy.
type Plane struct {
	Value *grid.Real
	Noise *grid.Real
}

// SplitPlane separates g into value and noise arrays.
func SplitPlane(g *grid.Complex) Plane {
	return Plane{Value: g.Real(), Noise: g.Imag()}
}

// Complex recombines the plane as Value + i·Noise.
func (p Plane) Complex() *grid.Complex {
	return combine(p.Value, p.Noise)
}

// combine builds re + i·im from two arrays of equal shape.
func combine(re, im *grid.Real) *grid.Complex {
	out := grid.NewComplex(re.Rows, re.Cols)
	for k := range out.Data {
		out.Data[k] = complex(re.Data[k], im.Data[k])
	}
	return out
}

// Products holds every derived polarisation product. All arrays share one
// shape.
type Products struct {
	I, Q, U, V Plane

	// L is the linear polarisation Re Q + i·Re U.
	L *grid.Complex
	// Li is the noise proxy Im Q + i·Im U.
	Li *grid.Complex

	// P is the fractional polarisation sqrt(Q²+U²+V²)/I.
	P *grid.Real
	// PA is the polarisation angle in degrees, in (-90, 90].
	PA *grid.Real
}

// Convert derives Stokes products from the four instrumental correlations.
func Convert(xx, xy, yx, yy *grid.Complex) (*Products, error) {
	if !xx.SameShape(xy) || !xx.SameShape(yx) || !xx.SameShape(yy) {
		return nil, fmt.Errorf("stokes: %w", grid.ErrShapeMismatch)
	}

	n := len(xx.Data)
	i := grid.NewComplex(xx.Rows, xx.Cols)
	q := grid.NewComplex(xx.Rows, xx.Cols)
	u := grid.NewComplex(xx.Rows, xx.Cols)
	v := grid.NewComplex(xx.Rows, xx.Cols)
	for k := 0; k < n; k++ {
		i.Data[k] = (xx.Data[k] + yy.Data[k]) / 2
		q.Data[k] = (xx.Data[k] - yy.Data[k]) / 2
		u.Data[k] = (xy.Data[k] + yx.Data[k]) / 2
		d := yx.Data[k] - xy.Data[k]
		v.Data[k] = complex(-imag(d)/2, real(d)/2)
	}

	p := &Products{
		I: SplitPlane(i),
		Q: SplitPlane(q),
		U: SplitPlane(u),
		V: SplitPlane(v),
	}
	p.linear()
	return p, nil
}

// Shape returns the common shape of every product.
func (p *Products) Shape() (rows, cols int) {
	return p.I.Value.Shape()
}

// linear rebuilds L, Li, P and PA from Q, U, V and I.
func (p *Products) linear() {
	rows, cols := p.Shape()
	p.L = combine(p.Q.Value, p.U.Value)
	p.Li = combine(p.Q.Noise, p.U.Noise)

	p.P = grid.NewReal(rows, cols)
	vecmath.Magnitude(p.P.Data, p.Q.Value.Data, p.U.Value.Data)
	vecmath.Magnitude(p.P.Data, p.P.Data, p.V.Value.Data)
	for k, stokesI := range p.I.Value.Data {
		p.P.Data[k] /= stokesI
	}

	p.PA = grid.NewReal(rows, cols)
	for k := range p.PA.Data {
		p.PA.Data[k] = 0.5 * math.Atan2(p.U.Value.Data[k], p.Q.Value.Data[k]) * 180 / math.Pi
	}
}

// Derotate removes a rotation measure from L and Li, rebuilds Q and U from
// the derotated parts and recomputes P and PA.
func (p *Products) Derotate(rotationMeasure float64, freqMHz []float64) error {
	l, err := rm.Derotate(p.L, rotationMeasure, freqMHz)
	if err != nil {
		return fmt.Errorf("stokes: derotate L: %w", err)
	}
	li, err := rm.Derotate(p.Li, rotationMeasure, freqMHz)
	if err != nil {
		return fmt.Errorf("stokes: derotate Li: %w", err)
	}

	p.Q = Plane{Value: l.Real(), Noise: li.Real()}
	p.U = Plane{Value: l.Imag(), Noise: li.Imag()}
	p.linear()
	return nil
}

// Fold folds every product with the same folder, keeping all planes phase
// aligned.
func (p *Products) Fold(f *fold.Folder) {
	foldPlane := func(pl Plane) Plane {
		return SplitPlane(f.Complex(pl.Complex()))
	}
	p.I = foldPlane(p.I)
	p.Q = foldPlane(p.Q)
	p.U = foldPlane(p.U)
	p.V = foldPlane(p.V)
	p.L = f.Complex(p.L)
	p.Li = f.Complex(p.Li)
	p.P = f.Real(p.P)
	p.PA = f.Real(p.PA)
}

// Complex returns a copy of a product as a complex array. L is returned as
// Re Q + i·Re U; P and PA carry a zero noise part.
func (p *Products) Complex(n Name) (*grid.Complex, error) {
	switch n {
	case I:
		return p.I.Complex(), nil
	case Q:
		return p.Q.Complex(), nil
	case U:
		return p.U.Complex(), nil
	case V:
		return p.V.Complex(), nil
	case L:
		return p.L.Clone(), nil
	case P, PA:
		re, _ := p.Real(n)
		return combine(re, grid.NewReal(re.Rows, re.Cols)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownName, n)
}

// Real returns a copy of the plotted signal of a product. For L this is |L|.
func (p *Products) Real(n Name) (*grid.Real, error) {
	switch n {
	case I:
		return p.I.Value.Clone(), nil
	case Q:
		return p.Q.Value.Clone(), nil
	case U:
		return p.U.Value.Clone(), nil
	case V:
		return p.V.Value.Clone(), nil
	case L:
		return p.L.Abs(), nil
	case P:
		return p.P.Clone(), nil
	case PA:
		return p.PA.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownName, n)
}
