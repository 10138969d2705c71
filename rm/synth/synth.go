// Package synth is a reference rotation-measure synthesis and RM-CLEAN
// backend for [rm.Engine].
//
// Synthesis follows Brentjens & de Bruyn (2005): the complex linear
// polarisation P(λ²) is summed over channels with uniform weights against
// exp(-2iφ(λ²-λ₀²)) for every trial depth φ. RM-CLEAN follows Heald (2009):
// a Högbom loop subtracts scaled, shifted copies of the RM spread function
// until the residual peak drops below cutoff times the FDF noise, and the
// model components are restored with a Gaussian of the RMSF main-lobe
// width.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dynspec/rm"
)

const (
	defaultGain    = 0.1
	defaultMaxIter = 1000
)

var (
	// ErrNoChannels indicates that no channel carries usable polarisation.
	ErrNoChannels = errors.New("synth: no usable channels")
	// ErrLengthMismatch indicates spectra of different lengths.
	ErrLengthMismatch = errors.New("synth: spectrum length mismatch")
	// ErrNonUniformAxis indicates a trial axis with uneven spacing.
	ErrNonUniformAxis = errors.New("synth: trial axis must be uniformly spaced")
)

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithGain sets the CLEAN loop gain in (0, 1].
func WithGain(g float64) Option {
	return func(s *Synthesizer) {
		if g > 0 && g <= 1 {
			s.gain = g
		}
	}
}

// WithMaxIterations caps the number of CLEAN iterations.
func WithMaxIterations(n int) Option {
	return func(s *Synthesizer) {
		if n >= 0 {
			s.maxIter = n
		}
	}
}

// WithAbsolute synthesises Q+iU directly instead of the fractional
// polarisation (Q+iU)/I.
func WithAbsolute() Option {
	return func(s *Synthesizer) {
		s.absolute = true
	}
}

// Synthesizer implements rm.Synthesizer.
type Synthesizer struct {
	gain     float64
	maxIter  int
	absolute bool
}

var _ rm.Synthesizer = (*Synthesizer)(nil)

// New returns a Synthesizer with loop gain 0.1 and at most 1000 iterations.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{gain: defaultGain, maxIter: defaultMaxIter}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// channels holds the weighted polarisation samples entering the sums.
type channels struct {
	l2   []float64 // λ² - λ₀²
	p    []complex128
	k    float64 // 1 / Σw
	l2lo float64
	l2hi float64
}

func (s *Synthesizer) prepare(req rm.Request) (*channels, error) {
	n := len(req.FreqHz)
	if len(req.I) != n || len(req.Q) != n || len(req.U) != n {
		return nil, fmt.Errorf("%w: freq %d, I %d, Q %d, U %d",
			ErrLengthMismatch, n, len(req.I), len(req.Q), len(req.U))
	}

	ch := &channels{l2lo: math.Inf(1), l2hi: math.Inf(-1)}
	var l2sum float64
	for j := 0; j < n; j++ {
		f, i, q, u := req.FreqHz[j], req.I[j], req.Q[j], req.U[j]
		if !(f > 0) || math.IsNaN(q) || math.IsNaN(u) {
			continue
		}
		p := complex(q, u)
		if !s.absolute {
			if i == 0 || math.IsNaN(i) {
				continue
			}
			p /= complex(i, 0)
		}
		lam := rm.SpeedOfLight / f
		l2 := lam * lam
		ch.l2 = append(ch.l2, l2)
		ch.p = append(ch.p, p)
		l2sum += l2
		ch.l2lo = math.Min(ch.l2lo, l2)
		ch.l2hi = math.Max(ch.l2hi, l2)
	}
	if len(ch.p) == 0 {
		return nil, ErrNoChannels
	}

	ch.k = 1 / float64(len(ch.p))
	l2ref := l2sum * ch.k
	for j := range ch.l2 {
		ch.l2[j] -= l2ref
	}
	return ch, nil
}

// transform evaluates K·Σ p_j·exp(-2iφ(λ²_j-λ₀²)) on the uniform axis
// phi0 + k·step, k = 0..n-1, using one rotating phasor per channel.
func (ch *channels) transform(phi0, step float64, n int, unit bool) []complex128 {
	out := make([]complex128, n)
	for j, l2 := range ch.l2 {
		p := ch.p[j]
		if unit {
			p = 1
		}
		phasor := p * cmplx.Exp(complex(0, -2*phi0*l2))
		rot := cmplx.Exp(complex(0, -2*step*l2))
		for k := range out {
			out[k] += phasor
			phasor *= rot
			// Renormalise periodically to bound drift.
			if k&1023 == 1023 {
				phasor = cmplx.Rect(cmplx.Abs(p), cmplx.Phase(phasor))
			}
		}
	}
	for k := range out {
		out[k] *= complex(ch.k, 0)
	}
	return out
}

// Synthesize runs RM synthesis and RM-CLEAN.
func (s *Synthesizer) Synthesize(req rm.Request) (*rm.Result, error) {
	if len(req.Phi) < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrNonUniformAxis, len(req.Phi))
	}
	step := req.Phi[1] - req.Phi[0]
	for k := 2; k < len(req.Phi); k++ {
		if math.Abs(req.Phi[k]-req.Phi[k-1]-step) > 1e-6*math.Abs(step) {
			return nil, fmt.Errorf("%w: sample %d", ErrNonUniformAxis, k)
		}
	}

	ch, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	n := len(req.Phi)
	fdf := ch.transform(req.Phi[0], step, n, false)

	// The RMSF spans twice the trial range so every shift stays in bounds.
	rmsfPhi := make([]float64, 2*n-1)
	for k := range rmsfPhi {
		rmsfPhi[k] = float64(k-(n-1)) * step
	}
	rmsf := ch.transform(rmsfPhi[0], step, len(rmsfPhi), true)

	model, residual := s.clean(fdf, rmsf, req.Cutoff)

	fwhm := 2 * math.Sqrt(3)
	if span := ch.l2hi - ch.l2lo; span > 0 {
		fwhm /= span
	} else {
		fwhm = math.Abs(step)
	}
	cleaned := restore(residual, model, step, fwhm)

	return &rm.Result{
		Phi:     append([]float64(nil), req.Phi...),
		FDF:     fdf,
		Model:   model,
		Cleaned: cleaned,
		RMSFPhi: rmsfPhi,
		RMSF:    rmsf,
	}, nil
}

// clean runs a Högbom loop over fdf and returns the model components and the
// final residual.
func (s *Synthesizer) clean(fdf, rmsf []complex128, cutoff float64) (model, residual []complex128) {
	n := len(fdf)
	resRe := make([]float64, n)
	resIm := make([]float64, n)
	for k, v := range fdf {
		resRe[k], resIm[k] = real(v), imag(v)
	}
	rRe := make([]float64, len(rmsf))
	rIm := make([]float64, len(rmsf))
	for k, v := range rmsf {
		rRe[k], rIm[k] = real(v), imag(v)
	}

	model = make([]complex128, n)
	threshold := cutoff * noise(resRe, resIm)
	mag := make([]float64, n)
	tmp := make([]float64, n)

	for iter := 0; iter < s.maxIter; iter++ {
		vecmath.Magnitude(mag, resRe, resIm)
		peak := 0
		for k, v := range mag {
			if v > mag[peak] {
				peak = k
			}
		}
		if mag[peak] <= threshold || mag[peak] == 0 {
			break
		}

		comp := complex(s.gain, 0) * complex(resRe[peak], resIm[peak])
		model[peak] += comp
		cRe, cIm := real(comp), imag(comp)

		// residual -= comp · RMSF(φ - φ_peak)
		off := n - 1 - peak
		wRe := rRe[off : off+n]
		wIm := rIm[off : off+n]

		vecmath.ScaleBlock(tmp, wRe, -cRe)
		vecmath.AddBlockInPlace(resRe, tmp)
		vecmath.ScaleBlock(tmp, wIm, cIm)
		vecmath.AddBlockInPlace(resRe, tmp)

		vecmath.ScaleBlock(tmp, wIm, -cRe)
		vecmath.AddBlockInPlace(resIm, tmp)
		vecmath.ScaleBlock(tmp, wRe, -cIm)
		vecmath.AddBlockInPlace(resIm, tmp)
	}

	residual = make([]complex128, n)
	for k := range residual {
		residual[k] = complex(resRe[k], resIm[k])
	}
	return model, residual
}

// noise estimates the FDF noise as the MAD-scaled spread of the real and
// imaginary parts.
func noise(re, im []float64) float64 {
	vals := make([]float64, 0, len(re)+len(im))
	vals = append(vals, re...)
	vals = append(vals, im...)
	med := median(vals)
	for i, v := range vals {
		vals[i] = math.Abs(v - med)
	}
	return 1.4826 * median(vals)
}

func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	if len(s) == 0 {
		return 0
	}
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return 0.5 * (s[mid-1] + s[mid])
}

// restore convolves the model with a Gaussian of the given FWHM and adds the
// residual.
func restore(residual, model []complex128, step, fwhm float64) []complex128 {
	out := append([]complex128(nil), residual...)
	sigma := fwhm / (2 * math.Sqrt(2*math.Ln2))
	reach := int(math.Ceil(5 * sigma / math.Abs(step)))
	for m, c := range model {
		if c == 0 {
			continue
		}
		lo := max(0, m-reach)
		hi := min(len(out)-1, m+reach)
		for k := lo; k <= hi; k++ {
			d := float64(k-m) * step
			out[k] += c * complex(math.Exp(-0.5*d*d/(sigma*sigma)), 0)
		}
	}
	return out
}
