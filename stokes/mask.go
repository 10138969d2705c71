package stokes

import (
	"math"

	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/stats/nanstat"
)

// Default thresholds for the signal-to-noise masks, in units of the noise
// proxy standard deviation.
const (
	DefaultFractionMaskSigma = 1.0
	DefaultAngleMaskSigma    = 0.1
)

// MaskBelow returns a copy of data with NaN wherever |signal| falls below
// sigma times the standard deviation of noise over the whole array.
func MaskBelow(data, signal, noise *grid.Real, sigma float64) *grid.Real {
	out := data.Clone()
	if !data.SameShape(signal) {
		return out
	}
	limit := sigma * nanstat.Std(noise.Data)
	for k, s := range signal.Data {
		if math.Abs(s) < limit {
			out.Data[k] = math.NaN()
		}
	}
	return out
}

// MaskFraction masks fractional polarisation using the Stokes I signal
// against the Stokes I noise proxy.
func MaskFraction(frac *grid.Real, i Plane, sigma float64) *grid.Real {
	return MaskBelow(frac, i.Value, i.Noise, sigma)
}

// MaskAngle masks a polarisation angle using Re L against the spread of
// Im L.
func MaskAngle(angle *grid.Real, l *grid.Complex, sigma float64) *grid.Real {
	return MaskBelow(angle, l.Real(), l.Imag(), sigma)
}

// MaskedFraction returns P masked with MaskFraction.
func (p *Products) MaskedFraction(sigma float64) *grid.Real {
	return MaskFraction(p.P, p.I, sigma)
}

// MaskedAngle returns PA masked with MaskAngle at DefaultAngleMaskSigma.
func (p *Products) MaskedAngle() *grid.Real {
	return MaskAngle(p.PA, p.L, DefaultAngleMaskSigma)
}
