package scan

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dynspec/stats/nanstat"
)

// DefaultGapThreshold is the step, in seconds, above which consecutive
// samples are considered to belong to different scans. It matches the
// duration of a typical calibrator cycle.
const DefaultGapThreshold = 10.1

var (
	// ErrEmptyAxis indicates a time axis without samples.
	ErrEmptyAxis = errors.New("scan: empty time axis")
	// ErrNoCycleTime indicates that gaps cannot be sized because the
	// correlator cycle time is unknown.
	ErrNoCycleTime = errors.New("scan: correlator cycle time unavailable")
)

// Segment is an inclusive index range of on-source samples.
type Segment struct {
	Start int
	End   int
}

// Len returns the number of samples in the segment.
func (s Segment) Len() int { return s.End - s.Start + 1 }

// Intervals describes the scan structure of a time axis.
type Intervals struct {
	Segments []Segment
	// CycleTime is the median correlator cycle time of the first segment.
	CycleTime float64
}

// Detect partitions t into on-source segments. A sample whose distance to
// its predecessor exceeds threshold starts a new segment.
func Detect(t []float64, threshold float64) (Intervals, error) {
	if len(t) == 0 {
		return Intervals{}, ErrEmptyAxis
	}

	diffs := make([]float64, len(t))
	for i := 1; i < len(t); i++ {
		diffs[i] = t[i] - t[i-1]
	}

	starts := []int{0}
	for i := 1; i < len(diffs); i++ {
		if math.Abs(diffs[i]) > threshold {
			starts = append(starts, i)
		}
	}

	segs := make([]Segment, len(starts))
	for k, s := range starts {
		end := len(t) - 1
		if k+1 < len(starts) {
			end = starts[k+1] - 1
		}
		segs[k] = Segment{Start: s, End: end}
	}

	return Intervals{Segments: segs, CycleTime: cycleTime(diffs, segs[0], threshold)}, nil
}

// cycleTime returns the median step inside the first segment, falling back
// to the median of every in-scan step when the first segment is a single
// sample.
func cycleTime(diffs []float64, first Segment, threshold float64) float64 {
	if first.End > first.Start {
		return nanstat.Median(diffs[first.Start+1 : first.End+1])
	}

	var steps []float64
	for _, d := range diffs[1:] {
		if math.Abs(d) <= threshold {
			steps = append(steps, d)
		}
	}
	if len(steps) == 0 {
		return 0
	}
	return nanstat.Median(steps)
}

// BreakCycles returns, for every segment, the number of correlator cycles
// between its last sample and the first sample of the next segment. The
// final entry is always zero.
func BreakCycles(t []float64, iv Intervals) ([]int, error) {
	n := len(iv.Segments)
	out := make([]int, n)
	if n <= 1 {
		return out, nil
	}
	if iv.CycleTime <= 0 {
		return nil, fmt.Errorf("%w: %d segments", ErrNoCycleTime, n)
	}
	for k := 0; k < n-1; k++ {
		gap := t[iv.Segments[k+1].Start] - t[iv.Segments[k].End]
		out[k] = int(math.RoundToEven(gap / iv.CycleTime))
	}
	return out, nil
}
