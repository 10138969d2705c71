package extract

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MarshalComplex encodes values as little-endian float64 (real, imag) pairs.
// NaN payloads are preserved.
func MarshalComplex(values []complex128) []byte {
	buf := make([]byte, 16*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(imag(v)))
	}
	return buf
}

// UnmarshalComplex decodes exactly len(dst) values from b.
func UnmarshalComplex(dst []complex128, b []byte) error {
	if len(b) != 16*len(dst) {
		return fmt.Errorf("%w: %d bytes for %d values", ErrInconsistent, len(b), len(dst))
	}
	for i := range dst {
		re := math.Float64frombits(binary.LittleEndian.Uint64(b[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[16*i+8:]))
		dst[i] = complex(re, im)
	}
	return nil
}
