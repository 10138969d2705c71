// Package report renders a dynamic spectrum run summary in the Prometheus
// text exposition format, suitable for a node_exporter textfile collector.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/cwbudde/algo-dynspec/dynspec"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// Metric names.
const (
	MetricInfo            = "dstools_info"
	MetricBins            = "dstools_spectrum_bins"
	MetricTimeResolution  = "dstools_time_resolution_seconds"
	MetricFreqResolution  = "dstools_frequency_resolution_megahertz"
	MetricScanSegments    = "dstools_scan_segments"
	MetricBreakCycles     = "dstools_break_cycles"
	MetricCycleTime       = "dstools_cycle_time_seconds"
	MetricFlagged         = "dstools_flagged_fraction"
	MetricRotationMeasure = "dstools_rotation_measure_rad_per_m2"
	MetricBuildDuration   = "dstools_build_duration_seconds"
)

// Summary collects the gauges describing ds. A zero elapsed omits the build
// duration.
func Summary(ds *dynspec.DynamicSpectrum, elapsed time.Duration) []*dto.MetricFamily {
	rows, cols := ds.Shape()
	unit := ds.Config.TimeUnit.Seconds()

	fams := []*dto.MetricFamily{
		gauge(MetricInfo, "Static description of the observation.",
			sample(1, "telescope", ds.Header.Telescope, "band", ds.Config.Band)),
		gauge(MetricBins, "Number of bins along each spectrum axis.",
			sample(float64(rows), "axis", "time"),
			sample(float64(cols), "axis", "frequency")),
		gauge(MetricTimeResolution, "Width of one time bin.",
			sample(ds.TimeResolution*unit)),
		gauge(MetricFreqResolution, "Width of one frequency bin.",
			sample(ds.FreqResolution)),
		gauge(MetricScanSegments, "Number of contiguous on-source scans.",
			sample(float64(len(ds.Intervals.Segments)))),
		gauge(MetricBreakCycles, "Placeholder integrations inserted for scan breaks.",
			sample(float64(sum(ds.BreakCycles)))),
		gauge(MetricCycleTime, "Correlator cycle time.",
			sample(ds.CycleTime*unit)),
	}

	flagged := make([]*dto.Metric, 0, len(stokes.Names))
	for _, name := range stokes.Names {
		plane, err := ds.Products.Real(name)
		if err != nil {
			continue
		}
		flagged = append(flagged, sample(nanFraction(plane.Data), "stokes", string(name)))
	}
	fams = append(fams, gauge(MetricFlagged, "Fraction of NaN bins per Stokes product.", flagged...))

	if ds.HasRM {
		fams = append(fams, gauge(MetricRotationMeasure, "Rotation measure used for derotation.", sample(ds.RM)))
	}
	if elapsed > 0 {
		fams = append(fams, gauge(MetricBuildDuration, "Wall time spent building the spectrum.", sample(elapsed.Seconds())))
	}
	return fams
}

// Write renders fams in the text exposition format.
func Write(w io.Writer, fams []*dto.MetricFamily) error {
	for _, mf := range fams {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("report: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile renders fams to path through a temporary file so that
// collectors never read a partial summary.
func WriteFile(path string, fams []*dto.MetricFamily) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := Write(f, fams); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Parse decodes a text exposition from r.
func Parse(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("report: parse text: %w", err)
	}
	return mfs, nil
}

// Value returns the gauge value of the series in mf whose labels include
// every given name/value pair, and whether one was found.
func Value(mf *dto.MetricFamily, labels ...string) (float64, bool) {
	if mf == nil {
		return 0, false
	}
outer:
	for _, m := range mf.GetMetric() {
		for i := 0; i+1 < len(labels); i += 2 {
			if !hasLabel(m, labels[i], labels[i+1]) {
				continue outer
			}
		}
		if m.Gauge != nil {
			return m.Gauge.GetValue(), true
		}
	}
	return 0, false
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue() == value
		}
	}
	return false
}

func gauge(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// sample builds one gauge series from alternating label names and values.
// The exposition format requires labels sorted by name.
func sample(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: ptr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: ptr(labels[i]), Value: ptr(labels[i+1])})
	}
	sort.Slice(m.Label, func(a, b int) bool { return m.Label[a].GetName() < m.Label[b].GetName() })
	return m
}

func nanFraction(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	n := 0
	for _, v := range x {
		if math.IsNaN(v) {
			n++
		}
	}
	return float64(n) / float64(len(x))
}

func sum(x []int) int {
	s := 0
	for _, v := range x {
		s += v
	}
	return s
}

func ptr[T any](v T) *T { return &v }
