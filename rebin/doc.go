// Package rebin provides the flux-conserving compression operator used to
// regrid dynamic spectra onto coarser time and frequency axes.
//
// An [Operator] maps an axis of length o onto a shorter axis of length n.
// Each output bin is a weighted average of a contiguous run of input cells:
//
//	>>> New(5, 3)
//	[0.6 0.4 0   0   0  ]
//	[0   0.2 0.6 0.2 0  ]
//	[0   0   0   0.4 0.6]
//
// Every row sums to one and every column sums to the compression ratio n/o,
// so scaling the summed output by o/n reproduces the summed input.
//
// [Grid] applies a time operator and a frequency operator to a complex
// array as the sandwich T·A·Fᵀ, treating missing cells as zero mass and
// marking output cells that received no data as missing.
package rebin
