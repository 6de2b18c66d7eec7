package shared

import "math"

// NextPowerOf2 is a fast computation of 2^x
// see: https://stackoverflow.com/questions/466204/rounding-up-to-next-power-of-2
func NextPowerOf2(i uint64) uint64 {
	i--
	i |= i >> 1
	i |= i >> 2
	i |= i >> 4
	i |= i >> 8
	i |= i >> 16
	i |= i >> 32
	i++
	return i
}

// ResizeAt returns the element count at which a container with the
// given slot count grows. The capacity-1 bound keeps at least one slot
// permanently empty, which guarantees probe termination.
func ResizeAt(capacity int, loadFactor float64) int {
	at := int(float64(capacity) * loadFactor)
	if at > capacity-1 {
		at = capacity - 1
	}
	if at < 1 {
		at = 1
	}
	return at
}

// CapacityFor returns the slot count for a container expected to hold
// `expected` elements under `loadFactor`. The result is a power of two
// sized so that the first `expected` distinct inserts never reallocate.
func CapacityFor(expected int, loadFactor float64) int {
	if expected <= 0 {
		// no size hint
		return DefaultCapacity
	}
	needed := int(math.Ceil(float64(expected) / loadFactor))
	capacity := int(NextPowerOf2(uint64(needed)))
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	for expected >= ResizeAt(capacity, loadFactor) {
		capacity <<= 1
	}
	return capacity
}
