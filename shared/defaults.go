package shared

const (
	// DefaultLoadFactor is the fill ratio that triggers growth when no
	// explicit load factor is configured. This value is a trade-off of
	// runtime and memory consumption.
	DefaultLoadFactor = 0.75

	// DefaultCapacity is the slot count of a container created without
	// a size hint. Must be a power of two.
	DefaultCapacity = 8

	// MinCapacity is the smallest slot array ever allocated.
	MinCapacity = 4
)
