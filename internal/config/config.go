// Package config loads the dstools YAML run configuration and watches it for
// changes.
package config

import (
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/rm"
	"github.com/cwbudde/algo-dynspec/rm/synth"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// Supported source kinds.
const (
	SourceSQLite = "sqlite"
	SourceRawPol = "rawpol"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultOutputDir   = "."
	DefaultCleanGain   = 0.1
	DefaultCleanPasses = 1000
)

// DefaultStokes lists the products written when output.stokes is absent.
var DefaultStokes = []string{"I", "Q", "U", "V"}

// Config is the top-level run configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Spectrum SpectrumConfig `yaml:"spectrum"`
	RM       RMConfig       `yaml:"rm"`
	Output   OutputConfig   `yaml:"output"`
}

// SourceConfig names the visibility container.
type SourceConfig struct {
	// Kind is one of: sqlite | rawpol.
	Kind string `yaml:"kind"`

	// Path is the SQLite file or the raw polarization directory.
	Path string `yaml:"path"`
}

// SpectrumConfig mirrors dynspec.Config.
type SpectrumConfig struct {
	Band string `yaml:"band"`

	FreqAvg int `yaml:"favg"`
	TimeAvg int `yaml:"tavg"`

	MinFreq float64 `yaml:"fmin"`
	MaxFreq float64 `yaml:"fmax"`
	MinTime float64 `yaml:"tmin"`
	MaxTime float64 `yaml:"tmax"`

	// Upper baseline limits accept .inf.
	MinUVDist float64 `yaml:"uvdist_min"`
	MaxUVDist float64 `yaml:"uvdist_max"`
	MinUVWave float64 `yaml:"uvwave_min"`
	MaxUVWave float64 `yaml:"uvwave_max"`

	TimeUnit     string  `yaml:"tunit"`
	GapThreshold float64 `yaml:"gap_threshold"`
	CalScans     bool    `yaml:"calscans"`
	Trim         bool    `yaml:"trim"`

	Derotate bool     `yaml:"derotate"`
	RM       *float64 `yaml:"rm"`

	Fold         bool    `yaml:"fold"`
	Period       float64 `yaml:"period"`
	PeriodOffset float64 `yaml:"period_offset"`
	FoldPeriods  int     `yaml:"fold_periods"`
}

// RMConfig controls rotation-measure synthesis.
type RMConfig struct {
	PhiMin float64 `yaml:"phi_min"`
	PhiMax float64 `yaml:"phi_max"`
	// PhiStep is the trial axis spacing in rad/m².
	PhiStep float64 `yaml:"phi_step"`
	Cutoff  float64 `yaml:"cutoff"`

	Gain          float64 `yaml:"gain"`
	MaxIterations int     `yaml:"max_iterations"`

	// Absolute synthesizes Q and U directly instead of Q/I and U/I.
	Absolute bool `yaml:"absolute"`
}

// OutputConfig controls what dstools writes.
type OutputConfig struct {
	Dir    string   `yaml:"dir"`
	Stokes []string `yaml:"stokes"`

	// Metrics is an optional path for the text-format run summary.
	Metrics string `yaml:"metrics"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first structural error in c.
func (c *Config) Validate() error {
	if err := validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Default returns a Config pre-populated with default values. Its source
// is unset, so it does not validate on its own.
func Default() *Config {
	d := dynspec.DefaultConfig()
	return &Config{
		Spectrum: SpectrumConfig{
			Band:         d.Band,
			FreqAvg:      d.FreqAvg,
			TimeAvg:      d.TimeAvg,
			MaxUVDist:    d.MaxUVDist,
			MaxUVWave:    d.MaxUVWave,
			TimeUnit:     string(d.TimeUnit),
			GapThreshold: d.GapThreshold,
			CalScans:     d.CalScans,
			Trim:         d.Trim,
			FoldPeriods:  d.FoldPeriods,
		},
		RM: RMConfig{
			PhiMin:        rm.DefaultPhiMin,
			PhiMax:        rm.DefaultPhiMax,
			PhiStep:       rm.DefaultPhiStep,
			Cutoff:        rm.DefaultCutoff,
			Gain:          DefaultCleanGain,
			MaxIterations: DefaultCleanPasses,
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Stokes: slices.Clone(DefaultStokes),
		},
	}
}

// Dynspec converts the spectrum section into a dynspec.Config.
func (c *Config) Dynspec() dynspec.Config {
	s := c.Spectrum
	return dynspec.Config{
		Band:         s.Band,
		FreqAvg:      s.FreqAvg,
		TimeAvg:      s.TimeAvg,
		MinFreq:      s.MinFreq,
		MaxFreq:      s.MaxFreq,
		MinTime:      s.MinTime,
		MaxTime:      s.MaxTime,
		MinUVDist:    s.MinUVDist,
		MaxUVDist:    s.MaxUVDist,
		MinUVWave:    s.MinUVWave,
		MaxUVWave:    s.MaxUVWave,
		TimeUnit:     dynspec.TimeUnit(s.TimeUnit),
		GapThreshold: s.GapThreshold,
		CalScans:     s.CalScans,
		Trim:         s.Trim,
		Derotate:     s.Derotate,
		RM:           s.RM,
		Fold:         s.Fold,
		Period:       s.Period,
		PeriodOffset: s.PeriodOffset,
		FoldPeriods:  s.FoldPeriods,
	}
}

// EngineOptions returns the rm.Engine options of the rm section.
func (c *Config) EngineOptions() []rm.Option {
	return []rm.Option{
		rm.WithTrialAxis(c.RM.PhiMin, c.RM.PhiMax, c.RM.PhiStep),
		rm.WithCutoff(c.RM.Cutoff),
	}
}

// Synthesizer builds the RM-CLEAN backend described by the rm section.
func (c *Config) Synthesizer() *synth.Synthesizer {
	opts := []synth.Option{
		synth.WithGain(c.RM.Gain),
		synth.WithMaxIterations(c.RM.MaxIterations),
	}
	if c.RM.Absolute {
		opts = append(opts, synth.WithAbsolute())
	}
	return synth.New(opts...)
}

// StokesNames parses output.stokes.
func (c *Config) StokesNames() ([]stokes.Name, error) {
	names := make([]stokes.Name, 0, len(c.Output.Stokes))
	for _, s := range c.Output.Stokes {
		n, err := stokes.ParseName(s)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Source.Kind {
	case SourceSQLite, SourceRawPol:
	default:
		return fmt.Errorf("source.kind: unknown kind %q", cfg.Source.Kind)
	}
	if cfg.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}
	if err := cfg.Dynspec().Validate(); err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}
	for _, v := range []float64{cfg.RM.PhiMin, cfg.RM.PhiMax, cfg.RM.PhiStep} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("rm: trial axis must be finite")
		}
	}
	if _, err := rm.TrialAxis(cfg.RM.PhiMin, cfg.RM.PhiMax, cfg.RM.PhiStep); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	if !(cfg.RM.Cutoff > 0) || math.IsInf(cfg.RM.Cutoff, 0) {
		return fmt.Errorf("rm.cutoff must be positive")
	}
	if !(cfg.RM.Gain > 0 && cfg.RM.Gain <= 1) {
		return fmt.Errorf("rm.gain must be in (0, 1]")
	}
	if cfg.RM.MaxIterations <= 0 {
		return fmt.Errorf("rm.max_iterations must be positive")
	}
	if len(cfg.Output.Stokes) == 0 {
		return fmt.Errorf("output.stokes must name at least one product")
	}
	if _, err := cfg.StokesNames(); err != nil {
		return fmt.Errorf("output.stokes: %w", err)
	}
	return nil
}
