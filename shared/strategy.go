package shared

// Strategy overrides both the hash function and the equality relation
// of a container. It is meant for keys whose natural `==` is not the
// wanted key identity, e.g. case-insensitive strings or structs with
// ignorable fields.
type Strategy[K any] interface {
	Hash(k K) uint64
	Equal(a, b K) bool
}

// FuncStrategy adapts a pair of plain functions to a Strategy.
type FuncStrategy[K any] struct {
	HashFn  func(k K) uint64
	EqualFn func(a, b K) bool
}

func (s FuncStrategy[K]) Hash(k K) uint64 { return s.HashFn(k) }

func (s FuncStrategy[K]) Equal(a, b K) bool { return s.EqualFn(a, b) }
