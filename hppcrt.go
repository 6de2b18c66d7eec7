// Package hppcrt collects specialized open addressing hash sets and
// maps: a flat linear probing engine with a sentinel-based empty slot
// convention and a robin hood engine with cached ideal slots. The
// subpackages expose the concrete container types; this package is a
// factory facade for picking the engine at runtime.
package hppcrt

import (
	"github.com/zhangdinet/hppcrt/flat"
	"github.com/zhangdinet/hppcrt/robin"
	"github.com/zhangdinet/hppcrt/shared"
)

// Set is the basic hash set interface as a set of function pointers.
type Set[K comparable] struct {
	Add        func(key K) bool
	AddN       func(keys ...K) int
	Contains   func(key K) bool
	Remove     func(key K) bool
	RemoveFunc func(pred func(key K) bool) int
	RetainFunc func(pred func(key K) bool) int
	Clear      func()
	Size       func() int
	Capacity   func() int
	IsEmpty    func() bool
	Reserve    func(n int)
	Load       func() float64
	Each       func(fn func(key K) bool)
	AppendTo   func(dst []K) []K
	HashCode   func() uint64
}

// Map is the basic hash map interface as a set of function pointers.
type Map[K comparable, V comparable] struct {
	Put          func(key K, val V) (V, bool)
	PutIfAbsent  func(key K, val V) bool
	Get          func(key K) (V, bool)
	GetOrDefault func(key K) V
	ContainsKey  func(key K) bool
	Remove       func(key K) (V, bool)
	RemoveFunc   func(pred func(key K, val V) bool) int
	RetainFunc   func(pred func(key K, val V) bool) int
	Clear        func()
	Size         func() int
	Capacity     func() int
	IsEmpty      func() bool
	Reserve      func(n int)
	Load         func() float64
	Each         func(fn func(key K, val V) bool)
	HashCode     func() uint64
	LKey         func() K
	LGet         func() V
	LSet         func(val V) V
	LSlot        func() int
}

// Type specifies the engine of the container.
type Type int

const (
	// Flat selects the linear probing engine with a sentinel-based
	// empty slot convention.
	Flat Type = iota
	// Robin selects the robin hood engine with cached ideal slots.
	Robin
)

// SetConfig is used by the factory to create and configure a set.
type SetConfig[K comparable] struct {
	Type Type
	// Expected sizes the set so that the first Expected distinct
	// inserts never reallocate.
	Expected int
	// LoadFactor is the fill ratio that triggers growth. It is a
	// trade-off between performance and memory consumption. If unset,
	// shared.DefaultLoadFactor is used.
	LoadFactor float64
	// Hasher is used by the flat engine. Must be configured for
	// complex data types. If unset, a default hasher is used for
	// golang basic types.
	Hasher shared.HashFn[K]
	// Empty is the key representation the flat engine uses to track
	// empty slots. The key equal to Empty itself is kept off-band and
	// stays usable.
	Empty K
	// Strategy overrides hashing and equality of the robin engine.
	Strategy shared.Strategy[K]
}

// MapConfig is used by the factory to create and configure a map.
type MapConfig[K comparable, V comparable] struct {
	Type       Type
	Expected   int
	LoadFactor float64
	Hasher     shared.HashFn[K]
	Empty      K
	Strategy   shared.Strategy[K]
	// DefaultValue is reported for absent keys by GetOrDefault and
	// Remove.
	DefaultValue V
}

// MustNewSet same as 'NewSet' but panics if and only if an error occurs.
func MustNewSet[K comparable](cfg SetConfig[K]) *Set[K] {
	s, err := NewSet(cfg)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSet is a factory function to instantiate a hash set backed by the
// configured engine. A struct with function pointers is used as
// interface. In most cases the usage of the dedicated container type
// is recommended.
func NewSet[K comparable](cfg SetConfig[K]) (*Set[K], error) {
	if cfg.LoadFactor == 0 {
		cfg.LoadFactor = shared.DefaultLoadFactor
	}

	res := &Set[K]{}

	switch cfg.Type {
	case Flat:
		if cfg.Hasher == nil {
			cfg.Hasher = shared.GetHasher[K]()
		}
		s, err := flat.NewSetWith(cfg.Expected, cfg.LoadFactor, cfg.Empty, cfg.Hasher)
		if err != nil {
			return nil, err
		}
		res.Add = s.Add
		res.AddN = s.AddN
		res.AppendTo = s.AppendTo
		res.Capacity = s.Capacity
		res.Clear = s.Clear
		res.Contains = s.Contains
		res.Each = s.Each
		res.HashCode = s.HashCode
		res.IsEmpty = s.IsEmpty
		res.Load = s.Load
		res.Remove = s.Remove
		res.RemoveFunc = s.RemoveFunc
		res.Reserve = s.Reserve
		res.RetainFunc = s.RetainFunc
		res.Size = s.Size
	case Robin:
		s, err := robin.NewSetWith[K](cfg.Expected, cfg.LoadFactor, cfg.Strategy)
		if err != nil {
			return nil, err
		}
		res.Add = s.Add
		res.AddN = s.AddN
		res.AppendTo = s.AppendTo
		res.Capacity = s.Capacity
		res.Clear = s.Clear
		res.Contains = s.Contains
		res.Each = s.Each
		res.HashCode = s.HashCode
		res.IsEmpty = s.IsEmpty
		res.Load = s.Load
		res.Remove = s.Remove
		res.RemoveFunc = s.RemoveFunc
		res.Reserve = s.Reserve
		res.RetainFunc = s.RetainFunc
		res.Size = s.Size
	}

	return res, nil
}

// MustNewMap same as 'NewMap' but panics if and only if an error occurs.
func MustNewMap[K comparable, V comparable](cfg MapConfig[K, V]) *Map[K, V] {
	m, err := NewMap(cfg)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// NewMap is a factory function to instantiate a hash map backed by the
// configured engine.
func NewMap[K comparable, V comparable](cfg MapConfig[K, V]) (*Map[K, V], error) {
	if cfg.LoadFactor == 0 {
		cfg.LoadFactor = shared.DefaultLoadFactor
	}

	res := &Map[K, V]{}

	switch cfg.Type {
	case Flat:
		if cfg.Hasher == nil {
			cfg.Hasher = shared.GetHasher[K]()
		}
		m, err := flat.NewMapWith[K, V](cfg.Expected, cfg.LoadFactor, cfg.Empty, cfg.Hasher)
		if err != nil {
			return nil, err
		}
		m.SetDefaultValue(cfg.DefaultValue)
		res.Capacity = m.Capacity
		res.Clear = m.Clear
		res.ContainsKey = m.ContainsKey
		res.Each = m.Each
		res.Get = m.Get
		res.GetOrDefault = m.GetOrDefault
		res.HashCode = m.HashCode
		res.IsEmpty = m.IsEmpty
		res.LGet = m.LGet
		res.LKey = m.LKey
		res.LSet = m.LSet
		res.LSlot = m.LSlot
		res.Load = m.Load
		res.Put = m.Put
		res.PutIfAbsent = m.PutIfAbsent
		res.Remove = m.Remove
		res.RemoveFunc = m.RemoveFunc
		res.Reserve = m.Reserve
		res.RetainFunc = m.RetainFunc
		res.Size = m.Size
	case Robin:
		m, err := robin.NewMapWith[K, V](cfg.Expected, cfg.LoadFactor, cfg.Strategy)
		if err != nil {
			return nil, err
		}
		m.SetDefaultValue(cfg.DefaultValue)
		res.Capacity = m.Capacity
		res.Clear = m.Clear
		res.ContainsKey = m.ContainsKey
		res.Each = m.Each
		res.Get = m.Get
		res.GetOrDefault = m.GetOrDefault
		res.HashCode = m.HashCode
		res.IsEmpty = m.IsEmpty
		res.LGet = m.LGet
		res.LKey = m.LKey
		res.LSet = m.LSet
		res.LSlot = m.LSlot
		res.Load = m.Load
		res.Put = m.Put
		res.PutIfAbsent = m.PutIfAbsent
		res.Remove = m.Remove
		res.RemoveFunc = m.RemoveFunc
		res.Reserve = m.Reserve
		res.RetainFunc = m.RetainFunc
		res.Size = m.Size
	}

	return res, nil
}
