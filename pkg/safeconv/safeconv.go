// Package safeconv provides checked integer conversions for the boundary
// with the grammar engine, which reports byte offsets as uint.
package safeconv

// MaxInt is the maximum value of int on the current platform.
const MaxInt = int(^uint(0) >> 1)

// MustUintToInt converts uint to int, panicking on overflow. Reserve for
// values that are provably small, such as offsets into an in-memory buffer.
func MustUintToInt(v uint) int {
	if v > uint(MaxInt) {
		panic("safeconv: uint to int overflow")
	}

	return int(v)
}

// MustIntToUint converts int to uint, panicking on negative input.
func MustIntToUint(v int) uint {
	if v < 0 {
		panic("safeconv: negative int to uint conversion")
	}

	return uint(v)
}
