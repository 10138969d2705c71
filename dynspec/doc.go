// Package dynspec builds flux-conserving dynamic spectra from interferometer
// visibilities.
//
// [New] pulls baseline-averaged instrumental polarisations from an
// [extract.Source] and runs the construction pipeline:
//
//  1. unit conversion (MHz, mJy, configured time unit), band flip, edge
//     channel trimming and time/frequency crops
//  2. scan segment detection and calibrator gap stacking
//  3. rebinning to the requested time and frequency resolution
//  4. Stokes conversion
//  5. optional Faraday derotation at the peak rotation measure
//  6. optional folding on a known period
//
// The resulting [DynamicSpectrum] is read-only. Accessors that hand out
// arrays return copies.
package dynspec
