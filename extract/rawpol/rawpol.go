// Package rawpol reads the legacy per-polarisation array layout, in which
// each instrumental polarisation was exported as its own baseline-averaged
// (time x channel) array next to a YAML manifest:
//
//	telescope: ATCA
//	time: [...]          # MJD seconds
//	frequency: [...]     # Hz
//	uvdist: [...]        # optional, metres
//	polarizations:
//	  XX: xx.bin
//	  XY: xy.bin
//	  YX: yx.bin
//	  YY: yy.bin
//
// Array files hold time-major [extract.MarshalComplex] values.
package rawpol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-dynspec/extract"
	"github.com/cwbudde/algo-dynspec/grid"
)

// ManifestName is the manifest file inside an export directory.
const ManifestName = "manifest.yaml"

var polarizations = []string{"XX", "XY", "YX", "YY"}

// ErrManifest indicates a missing or incomplete manifest.
var ErrManifest = errors.New("rawpol: invalid manifest")

// Manifest describes an export directory.
type Manifest struct {
	Telescope     string            `yaml:"telescope"`
	Time          []float64         `yaml:"time"`
	Frequency     []float64         `yaml:"frequency"`
	UVDist        []float64         `yaml:"uvdist,omitempty"`
	Polarizations map[string]string `yaml:"polarizations"`
}

// Option configures a Source.
type Option func(*Source)

// WithTelescope records the observing array in the header.
func WithTelescope(name string) Option {
	return func(s *Source) {
		s.vis.Header.Telescope = name
	}
}

// WithLogger sets the logger used for selection warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// Source serves already averaged visibilities.
type Source struct {
	vis    *extract.Visibilities
	logger *slog.Logger
}

var _ extract.Source = (*Source)(nil)

// FromArrays wraps in-memory arrays. Time is in MJD seconds and frequency in
// Hz. A nil uvdist is recorded as a single zero-length entry.
func FromArrays(time, freq, uvdist []float64, xx, xy, yx, yy *grid.Complex, opts ...Option) (*Source, error) {
	if len(uvdist) == 0 {
		uvdist = []float64{0}
	}
	vis := &extract.Visibilities{
		Time:   time,
		Freq:   freq,
		UVDist: uvdist,
		XX:     xx,
		XY:     xy,
		YX:     yx,
		YY:     yy,
	}
	if err := vis.Validate(); err != nil {
		return nil, fmt.Errorf("rawpol: %w", err)
	}
	vis.Header = extract.Header{
		Baselines:    len(uvdist),
		Integrations: len(time),
		Channels:     len(freq),
		Correlations: extract.NumCorrelations,
	}

	s := &Source{vis: vis, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Load reads an export directory.
func Load(dir string, opts ...Option) (*Source, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("rawpol: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("rawpol: parse manifest: %w", err)
	}
	if len(m.Time) == 0 || len(m.Frequency) == 0 {
		return nil, fmt.Errorf("%w: empty time or frequency axis", ErrManifest)
	}

	for _, pol := range polarizations {
		if _, ok := m.Polarizations[pol]; !ok {
			return nil, fmt.Errorf("%w: no %s array", ErrManifest, pol)
		}
	}

	planes := make([]*grid.Complex, len(polarizations))
	for k, pol := range polarizations {
		b, err := os.ReadFile(filepath.Join(dir, m.Polarizations[pol]))
		if err != nil {
			return nil, fmt.Errorf("rawpol: read %s: %w", pol, err)
		}
		planes[k] = grid.NewComplex(len(m.Time), len(m.Frequency))
		if err := extract.UnmarshalComplex(planes[k].Data, b); err != nil {
			return nil, fmt.Errorf("rawpol: %s: %w", pol, err)
		}
	}

	opts = append([]Option{WithTelescope(m.Telescope)}, opts...)
	return FromArrays(m.Time, m.Frequency, m.UVDist, planes[0], planes[1], planes[2], planes[3], opts...)
}

// Save writes vis as an export directory, creating dir if needed.
func Save(dir string, vis *extract.Visibilities) error {
	if err := vis.Validate(); err != nil {
		return fmt.Errorf("rawpol: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rawpol: %w", err)
	}

	m := Manifest{
		Telescope:     vis.Header.Telescope,
		Time:          vis.Time,
		Frequency:     vis.Freq,
		UVDist:        vis.UVDist,
		Polarizations: make(map[string]string, len(polarizations)),
	}
	for k, p := range vis.Planes() {
		name := fmt.Sprintf("%s.bin", polarizations[k])
		if err := os.WriteFile(filepath.Join(dir, name), extract.MarshalComplex(p.Data), 0o644); err != nil {
			return fmt.Errorf("rawpol: write %s: %w", polarizations[k], err)
		}
		m.Polarizations[polarizations[k]] = name
	}

	raw, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("rawpol: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), raw, 0o644); err != nil {
		return fmt.Errorf("rawpol: write manifest: %w", err)
	}
	return nil
}

// Visibilities returns copies of the stored arrays. Legacy exports are
// already baseline averaged, so a non-default selection is ignored with a
// warning.
func (s *Source) Visibilities(ctx context.Context, sel extract.Selection) (*extract.Visibilities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !sel.IsDefault() {
		s.logger.Warn("dynamic spectrum is already baseline averaged, disabling uvdist selection")
	}
	v := *s.vis
	v.Time = append([]float64(nil), s.vis.Time...)
	v.Freq = append([]float64(nil), s.vis.Freq...)
	v.UVDist = append([]float64(nil), s.vis.UVDist...)
	v.XX, v.XY, v.YX, v.YY = s.vis.XX.Clone(), s.vis.XY.Clone(), s.vis.YX.Clone(), s.vis.YY.Clone()
	return &v, nil
}
