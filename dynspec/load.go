package dynspec

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/grid"
)

// ErrEmptySelection indicates crops that leave no samples.
var ErrEmptySelection = errors.New("dynspec: selection leaves no data")

// mjdEpoch is MJD 0.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// MJDSecondsToTime converts MJD seconds to UTC.
func MJDSecondsToTime(sec float64) time.Time {
	return mjdEpoch.Add(time.Duration(sec * float64(time.Second))).Round(time.Millisecond)
}

// loaded is the cropped, unit-converted input of the stacking step.
type loaded struct {
	time   []float64 // configured unit, first sample at 0
	freq   []float64 // MHz
	uvdist []float64
	planes []*grid.Complex // XX, XY, YX, YY in mJy
	start  time.Time
}

func load(vis *extract.Visibilities, cfg Config, logger *slog.Logger) (*loaded, error) {
	unit := cfg.TimeUnit.Seconds()

	t := make([]float64, len(vis.Time))
	for i, v := range vis.Time {
		t[i] = v / unit
	}
	freq := make([]float64, len(vis.Freq))
	for i, v := range vis.Freq {
		freq[i] = v / 1e6
	}
	planes := make([]*grid.Complex, 0, extract.NumCorrelations)
	for _, p := range vis.Planes() {
		c := p.Clone()
		c.Scale(1e3)
		planes = append(planes, c)
	}

	if cfg.Band == "AT_L" {
		for _, p := range planes {
			p.FlipCols()
		}
		for i, j := 0, len(freq)-1; i < j; i, j = i+1, j-1 {
			freq[i], freq[j] = freq[j], freq[i]
		}
	}

	lo, hi := 0, len(freq)
	if cfg.Trim {
		lo, hi = populatedChannels(planes)
		if lo > 0 || hi < len(freq) {
			logger.Debug("trimmed flagged band edges", "low", lo, "high", len(freq)-hi)
		}
	}
	for lo < hi && cfg.MinFreq > 0 && freq[lo] < cfg.MinFreq {
		lo++
	}
	for hi > lo && cfg.MaxFreq > 0 && freq[hi-1] > cfg.MaxFreq {
		hi--
	}

	first, last := 0, len(t)
	if len(t) > 0 {
		t0 := t[0]
		for first < last && cfg.MinTime > 0 && !(t[first]-t0 > cfg.MinTime) {
			first++
		}
		for last > first && cfg.MaxTime > 0 && t[last-1]-t0 > cfg.MaxTime {
			last--
		}
	}
	if lo >= hi || first >= last {
		return nil, fmt.Errorf("%w: %d channels and %d integrations selected", ErrEmptySelection, hi-lo, last-first)
	}

	for k, p := range planes {
		rows, err := p.SliceRows(first, last)
		if err == nil {
			rows, err = rows.SliceCols(lo, hi)
		}
		if err != nil {
			return nil, fmt.Errorf("dynspec: crop: %w", err)
		}
		planes[k] = rows
	}

	t = t[first:last]
	start := MJDSecondsToTime(t[0] * unit)
	origin := t[0]
	for i := range t {
		t[i] -= origin
	}

	return &loaded{
		time:   t,
		freq:   freq[lo:hi],
		uvdist: append([]float64(nil), vis.UVDist...),
		planes: planes,
		start:  start,
	}, nil
}

// populatedChannels returns the channel range [lo, hi) between the first
// and last channel whose summed correlations over time are non-zero.
func populatedChannels(planes []*grid.Complex) (lo, hi int) {
	rows, cols := planes[0].Shape()
	populated := func(c int) bool {
		var sum complex128
		for r := 0; r < rows; r++ {
			var v complex128
			for _, p := range planes {
				v += p.At(r, c)
			}
			if !grid.IsNaN(v) {
				sum += v
			}
		}
		return sum != 0
	}

	lo, hi = 0, cols
	for lo < hi && !populated(lo) {
		lo++
	}
	for hi > lo && !populated(hi-1) {
		hi--
	}
	return lo, hi
}
