package dynspec

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/algo-dynspec/acf"
	"github.com/cwbudde/algo-dynspec/rm"
	"github.com/cwbudde/algo-dynspec/stokes"
)

// Shape returns the number of time and frequency bins of the Stokes
// products.
func (ds *DynamicSpectrum) Shape() (rows, cols int) {
	return ds.Products.Shape()
}

// Folded reports whether the products were folded.
func (ds *DynamicSpectrum) Folded() bool {
	return ds.Config.Fold
}

// HasStart reports whether the start time is known.
func (ds *DynamicSpectrum) HasStart() bool {
	return !ds.Start.IsZero()
}

// ACF returns the autocorrelation of the real signal of a Stokes product.
func (ds *DynamicSpectrum) ACF(name stokes.Name) (*acf.Result, error) {
	plane, err := ds.Products.Real(name)
	if err != nil {
		return nil, fmt.Errorf("dynspec: %w", err)
	}
	res, err := acf.AutoCorrelate2D(plane)
	if err != nil {
		return nil, fmt.Errorf("dynspec: acf of %s: %w", name, err)
	}
	return res, nil
}

// EstimateRM runs a peak rotation-measure estimate on the current products
// without changing them.
func (ds *DynamicSpectrum) EstimateRM(e *rm.Engine) (*rm.Estimate, error) {
	p := ds.Products
	est, err := e.PeakRM(p.I.Value, p.Q.Value, p.U.Value, ds.Freq)
	if err != nil {
		return nil, fmt.Errorf("dynspec: %w", err)
	}
	return est, nil
}

// HeaderFields returns the summary header as ordered key/value pairs.
func (ds *DynamicSpectrum) HeaderFields() [][2]string {
	fields := [][2]string{
		{"telescope", ds.Header.Telescope},
		{"band", ds.Config.Band},
		{"baselines", fmt.Sprint(ds.Header.Baselines)},
		{"integrations", fmt.Sprint(ds.Header.Integrations)},
		{"channels", fmt.Sprint(ds.Header.Channels)},
	}
	if ds.HasStart() {
		fields = append(fields, [2]string{"time_start", ds.Start.Format(time.DateTime + ".000")})
	}
	fields = append(fields,
		[2]string{"time_resolution", fmt.Sprintf("%.1f s", ds.TimeResolution*ds.Config.TimeUnit.Seconds())},
		[2]string{"freq_resolution", fmt.Sprintf("%.1f MHz", ds.FreqResolution)},
	)
	if ds.HasRM {
		fields = append(fields, [2]string{"rotation_measure", fmt.Sprintf("%.1f rad/m2", ds.RM)})
	}
	return fields
}

// String renders the header one "key: value" pair per line.
func (ds *DynamicSpectrum) String() string {
	var b strings.Builder
	for _, f := range ds.HeaderFields() {
		fmt.Fprintf(&b, "%s: %s\n", f[0], f[1])
	}
	return b.String()
}
