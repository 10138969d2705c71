package extract

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/rm"
)

// Cube holds per-baseline visibilities laid out as
// (baseline, time, channel, correlation).
type Cube struct {
	Time   []float64
	Freq   []float64
	UVDist []float64
	Data   []complex128

	Telescope string
}

// NewCube allocates a NaN-filled cube for the given axes.
func NewCube(time, freq, uvdist []float64) *Cube {
	c := &Cube{
		Time:   time,
		Freq:   freq,
		UVDist: uvdist,
		Data:   make([]complex128, len(uvdist)*len(time)*len(freq)*NumCorrelations),
	}
	for i := range c.Data {
		c.Data[i] = grid.NaN()
	}
	return c
}

// Index returns the offset of a sample in Data.
func (c *Cube) Index(baseline, t, ch, pol int) int {
	return ((baseline*len(c.Time)+t)*len(c.Freq)+ch)*NumCorrelations + pol
}

// Sample returns the four correlations of one baseline, time and channel.
func (c *Cube) Sample(baseline, t, ch int) []complex128 {
	i := c.Index(baseline, t, ch, 0)
	return c.Data[i : i+NumCorrelations]
}

// Validate checks that Data matches the axes.
func (c *Cube) Validate() error {
	want := len(c.UVDist) * len(c.Time) * len(c.Freq) * NumCorrelations
	if want == 0 || len(c.Data) != want {
		return fmt.Errorf("%w: %d samples for %d baselines x %d times x %d channels",
			ErrInconsistent, len(c.Data), len(c.UVDist), len(c.Time), len(c.Freq))
	}
	return nil
}

// Average applies sel and averages the cube over baselines, ignoring NaN.
//
// A cube with a single baseline entry is taken to be averaged upstream; a
// non-default selection is then dropped with a warning and no channel is
// masked. Otherwise baselines outside [MinUVDist, MaxUVDist] are excluded,
// and a channel of a baseline is excluded when its length in wavelengths is
// <= MinUVWave or >= MaxUVWave.
func (c *Cube) Average(sel Selection, logger *slog.Logger) (*Visibilities, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	preAveraged := len(c.UVDist) == 1
	if !sel.IsDefault() && preAveraged {
		logger.Warn("dynamic spectrum is already baseline averaged, disabling uvdist selection")
		sel = DefaultSelection()
	}

	nt, nf := len(c.Time), len(c.Freq)
	var kept []int
	var uvdist []float64
	for b, d := range c.UVDist {
		if d >= sel.MinUVDist && d <= sel.MaxUVDist {
			kept = append(kept, b)
			uvdist = append(uvdist, d)
		}
	}
	if len(kept) < len(c.UVDist) {
		logger.Debug("baseline selection", "kept", len(kept), "total", len(c.UVDist))
	}

	// usable[b][ch] is false where the uvwave limit masks a channel.
	wavelengths := make([]float64, nf)
	for ch, f := range c.Freq {
		wavelengths[ch] = rm.SpeedOfLight / f
	}
	usable := make([][]bool, len(kept))
	for k, b := range kept {
		usable[k] = make([]bool, nf)
		for ch, lam := range wavelengths {
			uvwave := c.UVDist[b] / lam
			usable[k][ch] = preAveraged || (uvwave > sel.MinUVWave && uvwave < sel.MaxUVWave)
		}
	}

	planes := make([]*grid.Complex, NumCorrelations)
	for pol := range planes {
		planes[pol] = grid.NewComplex(nt, nf)
	}

	var sum [NumCorrelations]complex128
	var count [NumCorrelations]int
	for t := 0; t < nt; t++ {
		for ch := 0; ch < nf; ch++ {
			sum = [NumCorrelations]complex128{}
			count = [NumCorrelations]int{}
			for k, b := range kept {
				if !usable[k][ch] {
					continue
				}
				for pol, v := range c.Sample(b, t, ch) {
					if grid.IsNaN(v) {
						continue
					}
					sum[pol] += v
					count[pol]++
				}
			}
			for pol := range planes {
				v := grid.NaN()
				if count[pol] > 0 {
					v = sum[pol] / complex(float64(count[pol]), 0)
				}
				planes[pol].Set(t, ch, v)
			}
		}
	}

	return &Visibilities{
		Time:   append([]float64(nil), c.Time...),
		Freq:   append([]float64(nil), c.Freq...),
		UVDist: uvdist,
		XX:     planes[0],
		XY:     planes[1],
		YX:     planes[2],
		YY:     planes[3],
		Header: Header{
			Telescope:    c.Telescope,
			Baselines:    len(c.UVDist),
			Integrations: nt,
			Channels:     nf,
			Correlations: NumCorrelations,
		},
	}, nil
}

// AveragedCube packs baseline-averaged visibilities into a single-baseline
// cube. The baseline length is the mean of v.UVDist, or 0 when unknown.
func AveragedCube(v *Visibilities) (*Cube, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	uv := 0.0
	for _, d := range v.UVDist {
		uv += d / float64(len(v.UVDist))
	}
	c := NewCube(v.Time, v.Freq, []float64{uv})
	c.Telescope = v.Header.Telescope
	planes := v.Planes()
	for t := range v.Time {
		for ch := range v.Freq {
			s := c.Sample(0, t, ch)
			for k, p := range planes {
				s[k] = p.At(t, ch)
			}
		}
	}
	return c, nil
}
