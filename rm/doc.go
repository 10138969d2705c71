// Package rm estimates the peak Faraday rotation measure of a dynamic
// spectrum and removes Faraday rotation from linear polarisation.
//
// Rotation-measure synthesis and RM-CLEAN are delegated to a [Synthesizer].
// The [Engine] selects the brightest integration, hands its Stokes I, Q and
// U spectra to the synthesizer over a trial Faraday-depth axis, and reports
// the depth at which the Faraday dispersion function peaks.
//
// [Derotate] applies exp(-2i·RM·λ²) per channel.
package rm
