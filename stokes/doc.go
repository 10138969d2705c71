// Package stokes converts instrumental linear-feed correlations into Stokes
// parameters and the linear-polarisation products derived from them.
//
// Calibrated visibilities carry the physical signal in their real part. The
// imaginary part is a zero-mean noise proxy of the same scale as the error on
// the real part, so every complex Stokes plane is held as a [Plane] with
// separate Value and Noise arrays. The noise proxy feeds error bars and
// signal-to-noise masks and is never treated as signal.
//
// The linear polarisation L = Re Q + i·Re U is built from the signal parts
// only; its companion Li = Im Q + i·Im U carries the matching noise proxy and
// is rotated alongside L during Faraday derotation.
package stokes
