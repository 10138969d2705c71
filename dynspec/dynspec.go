package dynspec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/fold"
	"github.com/cwbudde/algo-dynspec/grid"
	"github.com/cwbudde/algo-dynspec/rebin"
	"github.com/cwbudde/algo-dynspec/rm"
	"github.com/cwbudde/algo-dynspec/scan"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// Option configures construction.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	synth     rm.Synthesizer
	rmOptions []rm.Option
}

// WithLogger sets the logger for data-quality warnings and progress.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSynthesizer sets the rotation-measure synthesis backend used when
// derotation is requested without a fixed rotation measure.
func WithSynthesizer(s rm.Synthesizer, opts ...rm.Option) Option {
	return func(o *options) {
		o.synth = s
		o.rmOptions = opts
	}
}

// DynamicSpectrum is a gridded, Stokes-converted dynamic spectrum.
type DynamicSpectrum struct {
	Config Config

	// Time holds bin centres in Config.TimeUnit, starting near 0.
	Time []float64
	// Freq holds bin centres in MHz.
	Freq []float64
	// UVDist holds the retained baseline lengths in metres.
	UVDist []float64

	// Instrumental polarisations in mJy after stacking and rebinning.
	XX, XY, YX, YY *grid.Complex

	Products *stokes.Products

	Header extract.Header
	// Start is the UTC time of the first retained integration.
	Start time.Time

	Intervals   scan.Intervals
	BreakCycles []int
	// CycleTime is the correlator cycle time in Config.TimeUnit.
	CycleTime float64

	TMin, TMax float64
	FMin, FMax float64
	// TimeResolution is the width of a time bin in Config.TimeUnit.
	TimeResolution float64
	// FreqResolution is the width of a frequency bin in MHz.
	FreqResolution float64

	// RM is the rotation measure applied by derotation, in rad/m².
	RM    float64
	HasRM bool
	// RMEstimate holds the synthesis products when RM was estimated.
	RMEstimate *rm.Estimate

	logger *slog.Logger
}

// New builds a dynamic spectrum from src. Configuration errors abort
// construction; data-quality problems are logged and degrade to NaN.
func New(ctx context.Context, src extract.Source, cfg Config, opts ...Option) (*DynamicSpectrum, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Derotate && cfg.RM == nil && o.synth == nil {
		return nil, fmt.Errorf("dynspec: derotation needs a fixed RM or a synthesizer: %w", rm.ErrNoRotationMeasure)
	}

	vis, err := src.Visibilities(ctx, cfg.Selection())
	if err != nil {
		return nil, fmt.Errorf("dynspec: extract: %w", err)
	}
	if err := vis.Validate(); err != nil {
		return nil, fmt.Errorf("dynspec: %w", err)
	}
	if vis.Header.Integrations > len(vis.Time) {
		o.logger.Warn("more integrations in header than on the time axis",
			"integrations", vis.Header.Integrations, "time_samples", len(vis.Time))
	}

	in, err := load(vis, cfg, o.logger)
	if err != nil {
		return nil, err
	}

	ds := &DynamicSpectrum{
		Config: cfg,
		UVDist: in.uvdist,
		Header: vis.Header,
		Start:  in.start,
		logger: o.logger,
	}
	if err := ds.regrid(in); err != nil {
		return nil, err
	}

	ds.Products, err = stokes.Convert(ds.XX, ds.XY, ds.YX, ds.YY)
	if err != nil {
		return nil, fmt.Errorf("dynspec: %w", err)
	}

	if cfg.Derotate {
		if err := ds.derotate(o); err != nil {
			return nil, err
		}
	}

	if cfg.Fold {
		f, err := fold.New(cfg.Period, ds.CycleTime*float64(cfg.TimeAvg),
			fold.WithOffset(cfg.PeriodOffset), fold.WithPeriods(cfg.FoldPeriods))
		if err != nil {
			return nil, fmt.Errorf("dynspec: fold: %w", err)
		}
		ds.Products.Fold(f)
	}

	ds.TMin, ds.TMax = ds.Time[0], ds.Time[len(ds.Time)-1]
	ds.FMin, ds.FMax = ds.Freq[0], ds.Freq[len(ds.Freq)-1]
	ds.TimeResolution = (ds.TMax - ds.TMin) / float64(len(ds.Time))
	ds.FreqResolution = (ds.FMax - ds.FMin) / float64(len(ds.Freq))

	rows, cols := ds.Products.Shape()
	o.logger.Info("dynamic spectrum ready", "time_bins", rows, "freq_bins", cols,
		"segments", len(ds.Intervals.Segments), "folded", cfg.Fold)
	return ds, nil
}

// regrid detects scans, stacks the calibrator gaps and rebins to the output
// resolution.
func (ds *DynamicSpectrum) regrid(in *loaded) error {
	cfg := ds.Config
	iv, err := scan.Detect(in.time, cfg.GapThreshold/cfg.TimeUnit.Seconds())
	if err != nil {
		return fmt.Errorf("dynspec: %w", err)
	}
	ds.Intervals = iv
	ds.CycleTime = iv.CycleTime
	if len(iv.Segments) > 1 {
		ds.BreakCycles, err = scan.BreakCycles(in.time, iv)
		if err != nil && cfg.CalScans {
			return fmt.Errorf("dynspec: %w", err)
		}
	}

	stacked, err := scan.Stack(in.time, iv, cfg.CalScans, in.planes...)
	if err != nil {
		return fmt.Errorf("dynspec: %w", err)
	}
	times, err := scan.StackTimes(in.time, iv, cfg.CalScans)
	if err != nil {
		return fmt.Errorf("dynspec: %w", err)
	}

	rows, cols := stacked[0].Shape()
	tbins, fbins := rows/cfg.TimeAvg, cols/cfg.FreqAvg
	if tbins == 0 || fbins == 0 {
		return fmt.Errorf("%w: averaging %dx%d cells by %d in time and %d in frequency leaves no bins",
			ErrInvalidConfig, rows, cols, cfg.TimeAvg, cfg.FreqAvg)
	}

	out := make([]*grid.Complex, len(stacked))
	for k, p := range stacked {
		out[k], err = rebin.Grid(p, tbins, fbins)
		if err != nil {
			return fmt.Errorf("dynspec: rebin: %w", err)
		}
	}
	ds.XX, ds.XY, ds.YX, ds.YY = out[0], out[1], out[2], out[3]

	if ds.Time, err = rebin.Axis(times, tbins); err != nil {
		return fmt.Errorf("dynspec: rebin time: %w", err)
	}
	if ds.Freq, err = rebin.Axis(in.freq, fbins); err != nil {
		return fmt.Errorf("dynspec: rebin frequency: %w", err)
	}
	return nil
}

func (ds *DynamicSpectrum) derotate(o options) error {
	if ds.Config.RM != nil {
		ds.RM = *ds.Config.RM
	} else {
		engine := rm.NewEngine(o.synth, append([]rm.Option{rm.WithLogger(o.logger)}, o.rmOptions...)...)
		est, err := engine.PeakRM(ds.Products.I.Value, ds.Products.Q.Value, ds.Products.U.Value, ds.Freq)
		if err != nil {
			return fmt.Errorf("dynspec: %w", err)
		}
		ds.RM, ds.RMEstimate = est.RM, est
	}
	ds.HasRM = true

	if err := ds.Products.Derotate(ds.RM, ds.Freq); err != nil {
		return fmt.Errorf("dynspec: %w", err)
	}
	return nil
}
