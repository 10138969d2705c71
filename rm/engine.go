package rm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/stats/nanstat"
)

// Default trial Faraday-depth axis and CLEAN cutoff.
const (
	DefaultPhiMin  = -2000.0
	DefaultPhiMax  = 2000.0
	DefaultPhiStep = 0.1
	DefaultCutoff  = 1.0
)

var (
	// ErrNoSynthesizer indicates an engine without a synthesis backend.
	ErrNoSynthesizer = errors.New("rm: no synthesizer configured")
	// ErrNoRotationMeasure indicates derotation without a rotation measure.
	ErrNoRotationMeasure = errors.New("rm: rotation measure not available")
	// ErrNoSignal indicates that no integration carries Stokes I signal.
	ErrNoSignal = errors.New("rm: no Stokes I signal")
	// ErrInvalidAxis indicates an unusable trial axis.
	ErrInvalidAxis = errors.New("rm: invalid trial axis")
)

// Request is the input handed to a Synthesizer.
type Request struct {
	// FreqHz holds channel centre frequencies in Hz.
	FreqHz []float64
	// I, Q and U are the per-channel real Stokes spectra.
	I, Q, U []float64
	// Phi is the trial Faraday-depth axis in rad/m².
	Phi []float64
	// Cutoff is the CLEAN threshold in units of the FDF noise.
	Cutoff float64
}

// Result holds the synthesis and CLEAN products.
type Result struct {
	Phi     []float64
	FDF     []complex128
	Model   []complex128
	Cleaned []complex128
	RMSFPhi []float64
	RMSF    []complex128
}

// Synthesizer runs rotation-measure synthesis followed by RM-CLEAN.
type Synthesizer interface {
	Synthesize(req Request) (*Result, error)
}

// Estimate is the outcome of Engine.PeakRM.
type Estimate struct {
	// RM is the trial depth at the FDF magnitude peak.
	RM float64
	// Row is the integration used for the estimate.
	Row int
	// Result is the synthesizer output.
	Result *Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithTrialAxis replaces the trial Faraday-depth axis.
func WithTrialAxis(min, max, step float64) Option {
	return func(e *Engine) {
		e.phiMin, e.phiMax, e.phiStep = min, max, step
	}
}

// WithCutoff sets the CLEAN cutoff.
func WithCutoff(cutoff float64) Option {
	return func(e *Engine) {
		if cutoff > 0 {
			e.cutoff = cutoff
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine orchestrates peak rotation-measure estimation.
type Engine struct {
	synth   Synthesizer
	phiMin  float64
	phiMax  float64
	phiStep float64
	cutoff  float64
	logger  *slog.Logger
}

// NewEngine returns an Engine backed by s.
func NewEngine(s Synthesizer, opts ...Option) *Engine {
	e := &Engine{
		synth:   s,
		phiMin:  DefaultPhiMin,
		phiMax:  DefaultPhiMax,
		phiStep: DefaultPhiStep,
		cutoff:  DefaultCutoff,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// TrialAxis returns min, min+step, ... up to and including max.
func TrialAxis(min, max, step float64) ([]float64, error) {
	if !(step > 0) || !(max >= min) {
		return nil, fmt.Errorf("%w: [%v, %v] step %v", ErrInvalidAxis, min, max, step)
	}
	n := int(math.Round((max-min)/step)) + 1
	out := make([]float64, n)
	for k := range out {
		out[k] = min + float64(k)*step
	}
	return out, nil
}

// PeakRM estimates the rotation measure from the integration with the
// highest mean Stokes I. i, q and u are the real signal planes and freqMHz
// their channel frequencies. The planes are not modified.
func (e *Engine) PeakRM(i, q, u *grid.Real, freqMHz []float64) (*Estimate, error) {
	if e.synth == nil {
		return nil, ErrNoSynthesizer
	}
	if !i.SameShape(q) || !i.SameShape(u) || len(freqMHz) != i.Cols {
		return nil, fmt.Errorf("rm: %w", grid.ErrShapeMismatch)
	}

	row := nanstat.ArgMax(nanstat.MeanAxis(i, nanstat.AlongFrequency))
	if row < 0 {
		e.logger.Warn("no finite Stokes I row, skipping rotation measure")
		return nil, ErrNoSignal
	}

	phi, err := TrialAxis(e.phiMin, e.phiMax, e.phiStep)
	if err != nil {
		return nil, err
	}

	req := Request{
		FreqHz: make([]float64, len(freqMHz)),
		I:      zeroNaN(i.Row(row)),
		Q:      zeroNaN(q.Row(row)),
		U:      zeroNaN(u.Row(row)),
		Phi:    phi,
		Cutoff: e.cutoff,
	}
	for c, f := range freqMHz {
		req.FreqHz[c] = f * 1e6
	}

	res, err := e.synth.Synthesize(req)
	if err != nil {
		return nil, fmt.Errorf("rm: synthesis: %w", err)
	}
	if len(res.FDF) == 0 || len(res.FDF) != len(res.Phi) {
		return nil, fmt.Errorf("rm: synthesis returned %d FDF samples for %d depths", len(res.FDF), len(res.Phi))
	}

	peak := 0
	for k, v := range res.FDF {
		if cmplx.Abs(v) > cmplx.Abs(res.FDF[peak]) {
			peak = k
		}
	}

	est := &Estimate{RM: res.Phi[peak], Row: row, Result: res}
	e.logger.Info("peak rotation measure", "rm", est.RM, "unit", "rad/m2", "row", row)
	return est, nil
}

func zeroNaN(x []float64) []float64 {
	out := make([]float64, len(x))
	for k, v := range x {
		if !math.IsNaN(v) {
			out[k] = v
		}
	}
	return out
}
