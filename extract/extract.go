package extract

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dynspec/grid"
)

// NumCorrelations is the number of instrumental polarisations per sample,
// ordered XX, XY, YX, YY.
const NumCorrelations = 4

var (
	// ErrInvalidSelection indicates inverted or negative baseline limits.
	ErrInvalidSelection = errors.New("extract: invalid baseline selection")
	// ErrInconsistent indicates axes that do not match the data arrays.
	ErrInconsistent = errors.New("extract: inconsistent visibility arrays")
)

// Source supplies visibilities for one observation.
type Source interface {
	Visibilities(ctx context.Context, sel Selection) (*Visibilities, error)
}

// Selection restricts the baselines entering the average, by projected
// length in metres and in wavelengths.
type Selection struct {
	MinUVDist float64
	MaxUVDist float64
	MinUVWave float64
	MaxUVWave float64
}

// DefaultSelection keeps every baseline.
func DefaultSelection() Selection {
	return Selection{MaxUVDist: math.Inf(1), MaxUVWave: math.Inf(1)}
}

// IsDefault reports whether s keeps every baseline.
func (s Selection) IsDefault() bool {
	return s == DefaultSelection()
}

// Validate checks that both ranges are non-negative and ordered.
func (s Selection) Validate() error {
	if s.MinUVDist < 0 || s.MinUVWave < 0 {
		return fmt.Errorf("%w: negative lower limit", ErrInvalidSelection)
	}
	if !(s.MaxUVDist >= s.MinUVDist) || !(s.MaxUVWave >= s.MinUVWave) {
		return fmt.Errorf("%w: upper limit below lower limit", ErrInvalidSelection)
	}
	return nil
}

// Header carries the container metadata.
type Header struct {
	Telescope    string
	Baselines    int
	Integrations int
	Channels     int
	Correlations int
}

// Visibilities are baseline-averaged instrumental polarisations.
type Visibilities struct {
	// Time holds integration timestamps in MJD seconds.
	Time []float64
	// Freq holds channel centres in Hz.
	Freq []float64
	// UVDist holds the projected length of every retained baseline, or a
	// single entry when the container was averaged upstream.
	UVDist []float64

	XX, XY, YX, YY *grid.Complex

	Header Header
}

// Planes returns XX, XY, YX and YY in order.
func (v *Visibilities) Planes() []*grid.Complex {
	return []*grid.Complex{v.XX, v.XY, v.YX, v.YY}
}

// Validate checks that every plane is len(Time) x len(Freq).
func (v *Visibilities) Validate() error {
	if len(v.Time) == 0 || len(v.Freq) == 0 {
		return fmt.Errorf("%w: empty axis", ErrInconsistent)
	}
	for k, p := range v.Planes() {
		if p == nil {
			return fmt.Errorf("%w: plane %d missing", ErrInconsistent, k)
		}
		if p.Rows != len(v.Time) || p.Cols != len(v.Freq) {
			return fmt.Errorf("%w: plane %d is %dx%d, axes are %dx%d",
				ErrInconsistent, k, p.Rows, p.Cols, len(v.Time), len(v.Freq))
		}
	}
	return nil
}
