// Package scan locates on-source scan segments in a time axis and
// reassembles them into a continuous grid with placeholder rows for the
// calibrator and stow breaks between them.
//
// Break lengths are converted into whole correlator cycles by rounding to
// the nearest integer (half to even). The fractional remainder is dropped,
// so every break can shift subsequent rows by up to half a cycle; across
// many breaks this accumulates into a small timing drift. The rounding rule
// is kept as is because downstream timing analyses depend on it.
package scan
