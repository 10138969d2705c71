// Package extract defines the contract between visibility containers and the
// dynamic-spectrum core.
//
// A [Source] delivers baseline-averaged instrumental polarisations on the
// native time and frequency axes. Containers that store per-baseline data
// build a [Cube] and call [Cube.Average], which applies the baseline
// [Selection] and averages over baselines ignoring NaN.
//
// Units on this boundary are those of the measurement set: time in MJD
// seconds, frequency in Hz, baseline length in metres and flux density in Jy.
package extract
