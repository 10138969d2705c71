package cmd

import (
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-dynspec/internal/config"
)

// overrides holds flag values that replace config file settings when the
// flag is given.
var overrides struct {
	sqlite   string
	rawpol   string
	band     string
	favg     int
	tavg     int
	fmin     float64
	fmax     float64
	tmin     float64
	tmax     float64
	tunit    string
	noTrim   bool
	noCal    bool
	derotate bool
	rm       float64
	fold     bool
	period   float64
	offset   float64
	out      string
	stokes   []string
	metrics  string
}

func registerOverrides(fs *pflag.FlagSet) {
	o := &overrides
	fs.StringVar(&o.sqlite, "sqlite", "", "read visibilities from a SQLite cube")
	fs.StringVar(&o.rawpol, "rawpol", "", "read visibilities from a raw polarization export directory")
	fs.StringVar(&o.band, "band", "AT_L", "receiver band")
	fs.IntVarP(&o.favg, "favg", "f", 1, "frequency averaging factor")
	fs.IntVarP(&o.tavg, "tavg", "t", 1, "time averaging factor")
	fs.Float64Var(&o.fmin, "fmin", 0, "minimum frequency in MHz")
	fs.Float64Var(&o.fmax, "fmax", 0, "maximum frequency in MHz")
	fs.Float64Var(&o.tmin, "tmin", 0, "minimum time in --tunit")
	fs.Float64Var(&o.tmax, "tmax", 0, "maximum time in --tunit")
	fs.StringVar(&o.tunit, "tunit", "h", "time unit: s, min, h or d")
	fs.BoolVar(&o.noTrim, "no-trim", false, "keep flagged channels at the band edges")
	fs.BoolVar(&o.noCal, "no-calscans", false, "do not insert placeholder rows for scan breaks")
	fs.BoolVar(&o.derotate, "derotate", false, "correct Faraday rotation")
	fs.Float64Var(&o.rm, "rm", 0, "fixed rotation measure in rad/m2 (implies --derotate)")
	fs.BoolVar(&o.fold, "fold", false, "fold the spectrum at --period")
	fs.Float64Var(&o.period, "period", 0, "fold period in --tunit")
	fs.Float64Var(&o.offset, "period-offset", 0, "fold phase offset in periods")
	fs.StringVarP(&o.out, "out", "o", "", "output directory")
	fs.StringSliceVarP(&o.stokes, "stokes", "s", nil, "Stokes products to write")
	fs.StringVar(&o.metrics, "metrics", "", "write a text-format run summary to this path")
}

// applyOverrides copies every flag set on the command line into cfg.
func applyOverrides(fs *pflag.FlagSet, cfg *config.Config) {
	o := &overrides
	set := fs.Changed

	switch {
	case set("sqlite"):
		cfg.Source = config.SourceConfig{Kind: config.SourceSQLite, Path: o.sqlite}
	case set("rawpol"):
		cfg.Source = config.SourceConfig{Kind: config.SourceRawPol, Path: o.rawpol}
	}

	s := &cfg.Spectrum
	if set("band") {
		s.Band = o.band
	}
	if set("favg") {
		s.FreqAvg = o.favg
	}
	if set("tavg") {
		s.TimeAvg = o.tavg
	}
	if set("fmin") {
		s.MinFreq = o.fmin
	}
	if set("fmax") {
		s.MaxFreq = o.fmax
	}
	if set("tmin") {
		s.MinTime = o.tmin
	}
	if set("tmax") {
		s.MaxTime = o.tmax
	}
	if set("tunit") {
		s.TimeUnit = o.tunit
	}
	if set("no-trim") {
		s.Trim = !o.noTrim
	}
	if set("no-calscans") {
		s.CalScans = !o.noCal
	}
	if set("derotate") {
		s.Derotate = o.derotate
	}
	if set("rm") {
		v := o.rm
		s.RM = &v
		s.Derotate = true
	}
	if set("fold") {
		s.Fold = o.fold
	}
	if set("period") {
		s.Period = o.period
	}
	if set("period-offset") {
		s.PeriodOffset = o.offset
	}

	if set("out") {
		cfg.Output.Dir = o.out
	}
	if set("stokes") {
		cfg.Output.Stokes = o.stokes
	}
	if set("metrics") {
		cfg.Output.Metrics = o.metrics
	}
}
