package shared

import "sync/atomic"

// seedCounter is a process-wide monotonic counter. Every container
// draws a distinct value from it at construction.
var seedCounter uint64

// NextSeed returns a fresh perturbation seed. Distinct containers get
// distinct seeds, so a key stream that builds a long collision chain
// in one container rarely does so in another. The raw counter is
// scrambled so that consecutive seeds do not share low bits.
func NextSeed() uint64 {
	return mix64(atomic.AddUint64(&seedCounter, 0x9e3779b97f4a7c15))
}
