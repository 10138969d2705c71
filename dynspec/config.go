package dynspec

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/fold"
	"github.com/cwbudde/algo-dynspec/scan"
)

// ErrInvalidConfig indicates a configuration that cannot produce a dynamic
// spectrum.
var ErrInvalidConfig = errors.New("dynspec: invalid configuration")

// Bands lists the receiver bands with known conventions. AT_L is stored
// with descending frequency and is flipped on load.
var Bands = []string{"AK_low", "AK_mid", "AT_L", "AT_C", "AT_X", "MKT_UHF", "MKT_L"}

// TimeUnit is the unit of the time axis and of fold periods.
type TimeUnit string

// Supported time units.
const (
	Second TimeUnit = "s"
	Minute TimeUnit = "min"
	Hour   TimeUnit = "h"
	Day    TimeUnit = "d"
)

// Seconds returns the length of one unit in seconds, or 0 for an unknown
// unit.
func (u TimeUnit) Seconds() float64 {
	switch u {
	case Second:
		return 1
	case Minute:
		return 60
	case Hour:
		return 3600
	case Day:
		return 86400
	}
	return 0
}

// Config is the immutable construction configuration.
//
// Zero crop limits are unset. Frequencies are in MHz; times are in TimeUnit
// relative to the first sample.
type Config struct {
	Band string

	FreqAvg int
	TimeAvg int

	MinFreq float64
	MaxFreq float64
	MinTime float64
	MaxTime float64

	MinUVDist float64
	MaxUVDist float64
	MinUVWave float64
	MaxUVWave float64

	TimeUnit TimeUnit
	// GapThreshold is the scan break detection threshold in seconds.
	GapThreshold float64

	// CalScans inserts placeholder rows for calibrator and stow breaks.
	CalScans bool
	// Trim drops fully flagged channels at both band edges.
	Trim bool

	Derotate bool
	// RM fixes the rotation measure used for derotation. When nil the peak
	// rotation measure is estimated.
	RM *float64

	Fold         bool
	Period       float64
	PeriodOffset float64
	FoldPeriods  int
}

// DefaultConfig returns the configuration for an unaveraged AT_L spectrum
// in hours with calibrator gaps and edge trimming.
func DefaultConfig() Config {
	return Config{
		Band:         "AT_L",
		FreqAvg:      1,
		TimeAvg:      1,
		MaxUVDist:    math.Inf(1),
		MaxUVWave:    math.Inf(1),
		TimeUnit:     Hour,
		GapThreshold: scan.DefaultGapThreshold,
		CalScans:     true,
		Trim:         true,
		FoldPeriods:  fold.DefaultPeriods,
	}
}

// Selection returns the baseline selection part of c.
func (c Config) Selection() extract.Selection {
	return extract.Selection{
		MinUVDist: c.MinUVDist,
		MaxUVDist: c.MaxUVDist,
		MinUVWave: c.MinUVWave,
		MaxUVWave: c.MaxUVWave,
	}
}

// Validate reports the first configuration error in c.
func (c Config) Validate() error {
	if !slices.Contains(Bands, c.Band) {
		return fmt.Errorf("%w: unknown band %q", ErrInvalidConfig, c.Band)
	}
	if c.FreqAvg < 1 || c.TimeAvg < 1 {
		return fmt.Errorf("%w: averaging factors must be >= 1, got %d and %d", ErrInvalidConfig, c.FreqAvg, c.TimeAvg)
	}
	if c.TimeUnit.Seconds() == 0 {
		return fmt.Errorf("%w: unknown time unit %q", ErrInvalidConfig, c.TimeUnit)
	}
	if !(c.GapThreshold > 0) {
		return fmt.Errorf("%w: gap threshold must be > 0", ErrInvalidConfig)
	}
	if c.MinFreq < 0 || c.MaxFreq < 0 || (c.MaxFreq > 0 && c.MaxFreq < c.MinFreq) {
		return fmt.Errorf("%w: frequency range [%v, %v]", ErrInvalidConfig, c.MinFreq, c.MaxFreq)
	}
	if c.MinTime < 0 || c.MaxTime < 0 || (c.MaxTime > 0 && c.MaxTime <= c.MinTime) {
		return fmt.Errorf("%w: time range [%v, %v]", ErrInvalidConfig, c.MinTime, c.MaxTime)
	}
	if err := c.Selection().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.RM != nil && math.IsNaN(*c.RM) {
		return fmt.Errorf("%w: rotation measure is NaN", ErrInvalidConfig)
	}
	if c.Fold {
		if !(c.Period > 0) {
			return fmt.Errorf("dynspec: must pass a period when folding: %w", fold.ErrNoPeriod)
		}
		if c.FoldPeriods < 1 {
			return fmt.Errorf("%w: fold periods must be >= 1", ErrInvalidConfig)
		}
	}
	return nil
}
