// Package series collapses a dynamic spectrum into lightcurves and spectra
// with error bars derived from the imaginary noise proxy.
package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"strconv"
	"time"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/stats/nanstat"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// DefaultAngleSigma is the |L| detection threshold of PolarizationAngle.
const DefaultAngleSigma = 2.0

// ErrNoProducts indicates an empty product list.
var ErrNoProducts = errors.New("series: no Stokes products requested")

// Series is a set of Stokes profiles over a shared axis.
type Series struct {
	// Column is "time" for lightcurves and "frequency" for spectra.
	Column string
	// X holds bin positions in the time unit, in fold phase, or in MHz.
	X []float64

	Names  []stokes.Name
	Values map[stokes.Name][]float64
	Errors map[stokes.Name][]float64

	start    time.Time
	unit     float64
	absolute bool
}

// LightCurve averages every product over frequency. Folded spectra are
// placed on a phase axis spanning ±FoldPeriods/2.
func LightCurve(ds *dynspec.DynamicSpectrum, names ...stokes.Name) (*Series, error) {
	rows, _ := ds.Shape()
	lo, hi := ds.TMin, ds.TMax
	if ds.Folded() {
		half := 0.5 * float64(ds.Config.FoldPeriods)
		lo, hi = -half, half
	}
	s := &Series{
		Column:   "time",
		X:        linear(lo, hi, rows),
		start:    ds.Start,
		unit:     ds.Config.TimeUnit.Seconds(),
		absolute: ds.HasStart() && !ds.Folded(),
	}
	return s, s.collapse(ds.Products, names, nanstat.AlongFrequency)
}

// Spectrum averages every product over time.
func Spectrum(ds *dynspec.DynamicSpectrum, names ...stokes.Name) (*Series, error) {
	_, cols := ds.Shape()
	s := &Series{
		Column: "frequency",
		X:      linear(ds.FMin, ds.FMax, cols),
	}
	return s, s.collapse(ds.Products, names, nanstat.AlongTime)
}

// linear returns lo + i·(hi-lo)/n for i < n.
func linear(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func (s *Series) collapse(p *stokes.Products, names []stokes.Name, axis nanstat.Axis) error {
	if len(names) == 0 {
		return ErrNoProducts
	}
	rows, cols := p.Shape()
	n := cols
	if axis == nanstat.AlongTime {
		n = rows
	}
	sqrtn := math.Sqrt(float64(n))

	s.Names = names
	s.Values = make(map[stokes.Name][]float64, len(names))
	s.Errors = make(map[stokes.Name][]float64, len(names))
	for _, name := range names {
		c, err := p.Complex(name)
		if err != nil {
			return fmt.Errorf("series: %w", err)
		}
		mean := nanstat.ComplexMeanAxis(c, axis)
		y := make([]float64, len(mean))
		var spread []float64
		if name == stokes.L {
			for i, m := range mean {
				y[i] = cmplx.Abs(m)
			}
			spread = nanstat.ComplexStdAxis(c, axis)
		} else {
			for i, m := range mean {
				y[i] = real(m)
			}
			spread = nanstat.StdAxis(c.Imag(), axis)
		}
		for i := range spread {
			spread[i] /= sqrtn
		}
		s.Values[name] = y
		s.Errors[name] = spread
	}
	return nil
}

// PolarizationAngle returns the frequency-averaged polarisation angle in
// degrees per time bin. Bins where |mean L| is below sigma times the
// standard error of L are NaN.
func PolarizationAngle(ds *dynspec.DynamicSpectrum, sigma float64) []float64 {
	p := ds.Products
	_, cols := p.Shape()
	q := nanstat.MeanAxis(p.Q.Value, nanstat.AlongFrequency)
	u := nanstat.MeanAxis(p.U.Value, nanstat.AlongFrequency)
	l := nanstat.ComplexMeanAxis(p.L, nanstat.AlongFrequency)
	rms := nanstat.ComplexStdAxis(p.L, nanstat.AlongFrequency)

	out := make([]float64, len(q))
	for i := range out {
		if cmplx.Abs(l[i]) < sigma*rms[i]/math.Sqrt(float64(cols)) {
			out[i] = math.NaN()
			continue
		}
		out[i] = 0.5 * math.Atan2(u[i], q[i]) * 180 / math.Pi
	}
	return out
}

// WriteCSV writes one row per bin with the axis column followed by
// flux_density_<S> and flux_density_<S>_err per product. Rows holding any
// NaN are skipped. Lightcurves of spectra with a known start time and no
// folding carry UTC timestamps.
func (s *Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{s.Column}
	for _, name := range s.Names {
		header = append(header, "flux_density_"+string(name), "flux_density_"+string(name)+"_err")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("series: %w", err)
	}

	record := make([]string, len(header))
	for i, x := range s.X {
		if s.skip(i) {
			continue
		}
		record[0] = s.formatX(x)
		for k, name := range s.Names {
			record[1+2*k] = strconv.FormatFloat(s.Values[name][i], 'g', -1, 64)
			record[2+2*k] = strconv.FormatFloat(s.Errors[name][i], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("series: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("series: %w", err)
	}
	return nil
}

func (s *Series) skip(i int) bool {
	for _, name := range s.Names {
		if math.IsNaN(s.Values[name][i]) || math.IsNaN(s.Errors[name][i]) {
			return true
		}
	}
	return false
}

func (s *Series) formatX(x float64) string {
	if s.absolute {
		t := s.start.Add(time.Duration(x * s.unit * float64(time.Second)))
		return t.UTC().Format(time.DateTime + ".000")
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
