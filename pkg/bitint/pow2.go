/*
Package bitint provides power-of-two helpers for FFT and frame sizing.

The spectral pipeline accepts any transform size, but radix-2 sizes
keep the planner on its fastest code path. These helpers let callers
check a requested size and suggest the nearest efficient one.

All operations are O(1), allocation-free and safe on the hot path.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of
// two are preserved; zero and negative sizes map to 1.
//
// The size-1 subtraction keeps exact powers from doubling: for 8,
// bits.Len(7) = 3 and 1<<3 = 8, while bits.Len(8) = 4 would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of
// two have exactly one bit set, so n&(n-1) clears to zero only for
// them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
