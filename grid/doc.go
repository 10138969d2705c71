// Package grid provides the dense two-dimensional arrays used throughout the
// dynamic-spectrum pipeline.
//
// Arrays are stored row-major with rows indexing time and columns indexing
// frequency. Missing samples are represented by NaN; for complex arrays a cell
// is missing when either component is NaN.
package grid
