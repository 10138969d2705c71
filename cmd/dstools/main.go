// Command dstools builds dynamic spectra from radio interferometer
// visibilities and exports lightcurves, spectra, autocorrelations and
// rotation-measure products.
//
// Usage:
//
//	dstools [command] [flags]
//
// Examples:
//
//	dstools summary --rawpol ./J1234 --band AT_C
//	dstools lightcurve -c dstools.yaml --tavg 4 --stokes I,V
//	dstools rm -c dstools.yaml
//	dstools watch -c dstools.yaml
package main

import "github.com/cwbudde/algo-dynspec/cmd/dstools/cmd"

func main() {
	cmd.Execute()
}
