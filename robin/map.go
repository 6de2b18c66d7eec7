package robin

import (
	"fmt"

	"github.com/zhangdinet/hppcrt/shared"
)

// noSlot marks the lookup memo as invalid.
const noSlot = -1

// Map is a hash map over the same robin hood engine as Set, with a
// parallel value array.
//
// All operations are single-threaded. Callbacks passed to Each,
// RemoveFunc and RetainFunc must not mutate the map they traverse.
type Map[K comparable, V comparable] struct {
	keys   []K
	values []V
	cache  []int32
	hasher shared.HashFn[K]
	equal  func(a, b K) bool
	seed   uint64

	assigned   int
	mask       int
	resizeAt   int
	loadFactor float64

	// defaultValue is returned by GetOrDefault and Remove when the key
	// is absent.
	defaultValue V

	// lastSlot memoizes the slot of the most recent successful
	// ContainsKey, for the LKey/LGet/LSet/LSlot accessors. Any
	// mutation invalidates it.
	lastSlot int

	valHasher shared.HashFn[V]

	pool *shared.Pool[MapIterator[K, V]]
}

// NewMap creates a new ready to use hash map with default settings.
func NewMap[K comparable, V comparable]() *Map[K, V] {
	m, err := NewMapWith[K, V](0, shared.DefaultLoadFactor, nil)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// NewMapSized constructs a map that holds at least `expected` entries
// without reallocating.
func NewMapSized[K comparable, V comparable](expected int, loadFactor float64) (*Map[K, V], error) {
	return NewMapWith[K, V](expected, loadFactor, nil)
}

// NewMapWithStrategy constructs a map whose key hashing and equality
// are overridden by the given strategy.
func NewMapWithStrategy[K comparable, V comparable](strategy shared.Strategy[K]) (*Map[K, V], error) {
	if strategy == nil {
		return nil, shared.ErrNilStrategy
	}
	return NewMapWith[K, V](0, shared.DefaultLoadFactor, strategy)
}

// NewMapWith is the fully parameterized constructor. The load factor
// must be in (0,1]. A nil strategy selects the default hasher and `==`.
func NewMapWith[K comparable, V comparable](expected int, loadFactor float64, strategy shared.Strategy[K]) (*Map[K, V], error) {
	if err := shared.CheckLoadFactor(loadFactor); err != nil {
		return nil, err
	}

	m := &Map[K, V]{
		seed:       shared.NextSeed(),
		loadFactor: loadFactor,
		lastSlot:   noSlot,
	}
	if strategy != nil {
		m.hasher = strategy.Hash
		m.equal = strategy.Equal
	} else {
		m.hasher = shared.GetHasher[K]()
		m.equal = defaultEqual[K]
	}
	m.init(shared.CapacityFor(expected, loadFactor))

	return m, nil
}

// NewMapFrom constructs a map with the contents of `other`. The new
// map draws a fresh perturbation seed, so the slot layout diverges
// from the source.
func NewMapFrom[K comparable, V comparable](other *Map[K, V]) *Map[K, V] {
	return other.Clone()
}

func (m *Map[K, V]) init(capacity int) {
	m.keys = make([]K, capacity)
	m.values = make([]V, capacity)
	m.cache = newCacheArray(capacity)
	m.mask = capacity - 1
	m.resizeAt = shared.ResizeAt(capacity, m.loadFactor)
}

//go:inline
func (m *Map[K, V]) slot(key K) int {
	return int(shared.Mix(m.hasher(key), m.seed) & uint64(m.mask))
}

//go:inline
func (m *Map[K, V]) distance(idx int) int {
	return (idx - int(m.cache[idx])) & m.mask
}

// SetDefaultValue changes the value reported for absent keys by
// GetOrDefault and Remove.
func (m *Map[K, V]) SetDefaultValue(v V) {
	m.defaultValue = v
}

// Get returns the value stored for this key, or false if there is no
// such value.
func (m *Map[K, V]) Get(key K) (V, bool) {
	idx := m.slot(key)
	for d := 0; m.cache[idx] != emptySlot; d++ {
		if d > m.distance(idx) {
			break
		}
		if m.equal(m.keys[idx], key) {
			return m.values[idx], true
		}

		// next index
		idx = (idx + 1) & m.mask
	}

	var v V
	return v, false
}

// GetOrDefault returns the value stored for this key, or the
// configured default value if the key is absent.
func (m *Map[K, V]) GetOrDefault(key K) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	return m.defaultValue
}

// ContainsKey returns true if the key is in the map. A successful call
// memoizes the slot for the LKey/LGet/LSet/LSlot accessors.
func (m *Map[K, V]) ContainsKey(key K) bool {
	idx := m.slot(key)
	for d := 0; m.cache[idx] != emptySlot; d++ {
		if d > m.distance(idx) {
			break
		}
		if m.equal(m.keys[idx], key) {
			m.lastSlot = idx
			return true
		}

		// next index
		idx = (idx + 1) & m.mask
	}

	m.lastSlot = noSlot
	return false
}

// Put maps the given key to the given value. Returns the previous
// value and true if the key was already present.
func (m *Map[K, V]) Put(key K, val V) (V, bool) {
	m.lastSlot = noSlot
	ideal := m.slot(key)

	idx, d := ideal, 0
	for m.cache[idx] != emptySlot {
		if d > m.distance(idx) {
			// the key cannot be in, displace from here
			m.emplace(key, val, int32(ideal), idx, d)
			m.grown()
			return m.defaultValue, false
		}
		if m.equal(m.keys[idx], key) {
			old := m.values[idx]
			m.values[idx] = val
			return old, true
		}

		// next index
		idx = (idx + 1) & m.mask
		d++
	}

	m.keys[idx] = key
	m.values[idx] = val
	m.cache[idx] = int32(ideal)
	m.grown()

	return m.defaultValue, false
}

//go:inline
func (m *Map[K, V]) grown() {
	m.assigned++
	if m.assigned >= m.resizeAt {
		// keep doubling until the threshold clears the live count,
		// small load factors may need more than one step
		capacity := (m.mask + 1) * 2
		for shared.ResizeAt(capacity, m.loadFactor) <= m.assigned {
			capacity *= 2
		}
		m.rehash(capacity)
	}
}

// emplace applies the robin hood creed until an empty slot is found,
// see Set.emplace. The key is known to be absent.
func (m *Map[K, V]) emplace(key K, val V, ideal int32, idx, d int) {
	for {
		if m.cache[idx] == emptySlot {
			m.keys[idx] = key
			m.values[idx] = val
			m.cache[idx] = ideal
			return
		}

		if ds := m.distance(idx); d > ds {
			// swap with the resident, continue with the dislodged entry
			key, m.keys[idx] = m.keys[idx], key
			val, m.values[idx] = m.values[idx], val
			ideal, m.cache[idx] = m.cache[idx], ideal
			d = ds
		}

		// next index
		idx = (idx + 1) & m.mask
		d++
	}
}

// PutIfAbsent inserts the pair if the key is not present. Returns true
// if the pair was inserted.
func (m *Map[K, V]) PutIfAbsent(key K, val V) bool {
	if m.ContainsKey(key) {
		return false
	}
	m.Put(key, val)
	return true
}

// PutAll inserts every pair of `other`, overwriting existing keys.
// Returns the number of keys that were not present before.
func (m *Map[K, V]) PutAll(other *Map[K, V]) int {
	added := 0
	other.Each(func(k K, v V) bool {
		if _, found := m.Put(k, v); !found {
			added++
		}
		return false
	})
	return added
}

// Remove deletes the key from the map. Returns the removed value and
// true, or the default value and false if the key was absent.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	m.lastSlot = noSlot

	idx := m.slot(key)
	for d := 0; m.cache[idx] != emptySlot; d++ {
		if d > m.distance(idx) {
			break
		}
		if m.equal(m.keys[idx], key) {
			old := m.values[idx]
			m.shiftConflicts(idx)
			return old, true
		}

		// next index
		idx = (idx + 1) & m.mask
	}

	return m.defaultValue, false
}

// shiftConflicts closes the gap left at `gap`, see Set.shiftConflicts.
func (m *Map[K, V]) shiftConflicts(gap int) {
	for distance := 1; ; distance++ {
		idx := (gap + distance) & m.mask
		if m.cache[idx] == emptySlot {
			break
		}

		if m.distance(idx) >= distance {
			// the entry's ideal slot lies at or before the gap
			m.keys[gap] = m.keys[idx]
			m.values[gap] = m.values[idx]
			m.cache[gap] = m.cache[idx]
			gap = idx
			distance = 0
		}
	}

	var (
		zeroK K
		zeroV V
	)
	m.keys[gap] = zeroK
	m.values[gap] = zeroV
	m.cache[gap] = emptySlot
	m.assigned--
}

// RemoveFunc deletes every pair the predicate matches and returns the
// number of removed pairs. If the predicate panics, the map stays
// consistent with the removals completed so far.
func (m *Map[K, V]) RemoveFunc(pred func(key K, val V) bool) int {
	m.lastSlot = noSlot
	before := m.assigned

	for idx := 0; idx <= m.mask; {
		if m.cache[idx] != emptySlot && pred(m.keys[idx], m.values[idx]) {
			// the shift may refill this slot, examine it again
			m.shiftConflicts(idx)
		} else {
			idx++
		}
	}

	return before - m.assigned
}

// RetainFunc deletes every pair the predicate does not match and
// returns the number of removed pairs.
func (m *Map[K, V]) RetainFunc(pred func(key K, val V) bool) int {
	return m.RemoveFunc(func(k K, v V) bool { return !pred(k, v) })
}

// RemoveAll deletes every key contained in `other` and returns the
// number of removed pairs.
func (m *Map[K, V]) RemoveAll(other shared.Lookup[K]) int {
	return m.RemoveFunc(func(k K, _ V) bool { return other.Contains(k) })
}

// RetainAll deletes every key not contained in `other` and returns the
// number of removed pairs.
func (m *Map[K, V]) RetainAll(other shared.Lookup[K]) int {
	return m.RemoveFunc(func(k K, _ V) bool { return !other.Contains(k) })
}

// rehash reinserts all live entries into fresh slot arrays, walking
// the old slots in decreasing index order. The new arrays are fully
// allocated before any state changes.
func (m *Map[K, V]) rehash(capacity int) {
	var (
		oldKeys    = m.keys
		oldValues  = m.values
		oldCache   = m.cache
		freshKeys  = make([]K, capacity)
		freshVals  = make([]V, capacity)
		freshCache = newCacheArray(capacity)
	)

	m.keys = freshKeys
	m.values = freshVals
	m.cache = freshCache
	m.mask = capacity - 1
	m.resizeAt = shared.ResizeAt(capacity, m.loadFactor)

	for i := len(oldKeys) - 1; i >= 0; i-- {
		if oldCache[i] == emptySlot {
			continue
		}
		key := oldKeys[i]
		ideal := m.slot(key)
		m.emplace(key, oldValues[i], int32(ideal), ideal, 0)
	}
}

// Reserve grows the slot arrays to hold at least n entries without
// further reallocation. If n is lower than that, the function may have
// no effect.
func (m *Map[K, V]) Reserve(n int) {
	m.lastSlot = noSlot
	capacity := shared.CapacityFor(n, m.loadFactor)
	if len(m.keys) < capacity {
		m.rehash(capacity)
	}
}

// Clear removes all pairs. The slot arrays are kept.
func (m *Map[K, V]) Clear() {
	m.lastSlot = noSlot

	var (
		zeroK K
		zeroV V
	)
	for i := range m.keys {
		m.keys[i] = zeroK
		m.values[i] = zeroV
		m.cache[i] = emptySlot
	}
	m.assigned = 0
}

// Size returns the number of pairs in the map.
func (m *Map[K, V]) Size() int {
	return m.assigned
}

// IsEmpty returns true if the map holds no pairs.
func (m *Map[K, V]) IsEmpty() bool {
	return m.assigned == 0
}

// Capacity returns the resize threshold: the insert that brings the
// number of pairs up to this value grows the slot arrays.
func (m *Map[K, V]) Capacity() int {
	return m.resizeAt
}

// Load returns the current fill ratio of the slot arrays.
func (m *Map[K, V]) Load() float64 {
	return float64(m.assigned) / float64(len(m.keys))
}

// Each calls 'fn' on every key-value pair, in decreasing slot order.
// If 'fn' returns true, the iteration stops.
func (m *Map[K, V]) Each(fn func(key K, val V) bool) {
	for i := m.mask; i >= 0; i-- {
		if m.cache[i] != emptySlot {
			if stop := fn(m.keys[i], m.values[i]); stop {
				// stop iteration
				return
			}
		}
	}
}

// LSlot returns the slot memoized by the most recent successful
// ContainsKey.
func (m *Map[K, V]) LSlot() int {
	m.checkLastSlot()
	return m.lastSlot
}

// LKey returns the key found by the most recent successful ContainsKey.
func (m *Map[K, V]) LKey() K {
	m.checkLastSlot()
	return m.keys[m.lastSlot]
}

// LGet returns the value of the entry found by the most recent
// successful ContainsKey.
func (m *Map[K, V]) LGet() V {
	m.checkLastSlot()
	return m.values[m.lastSlot]
}

// LSet overwrites the value of the entry found by the most recent
// successful ContainsKey and returns the previous value.
func (m *Map[K, V]) LSet(val V) V {
	m.checkLastSlot()
	old := m.values[m.lastSlot]
	m.values[m.lastSlot] = val
	return old
}

func (m *Map[K, V]) checkLastSlot() {
	if m.lastSlot == noSlot {
		panic(fmt.Sprintf("no slot tracked, call ContainsKey first (lastSlot=%d)", m.lastSlot))
	}
}

func (m *Map[K, V]) ensureValHasher() {
	if m.valHasher == nil {
		m.valHasher = shared.GetHasher[V]()
	}
}

// HashCode returns an order-independent hash over the contents. Equal
// maps report equal hash codes.
func (m *Map[K, V]) HashCode() uint64 {
	m.ensureValHasher()

	var h uint64
	for i := m.mask; i >= 0; i-- {
		if m.cache[i] != emptySlot {
			h += shared.Mix(m.hasher(m.keys[i]), 0) + shared.Mix(m.valHasher(m.values[i]), 0)
		}
	}
	return h
}

// Equals returns true if `other` holds exactly the same key-value
// pairs.
func (m *Map[K, V]) Equals(other *Map[K, V]) bool {
	if other == nil || m.Size() != other.Size() {
		return false
	}

	equal := true
	m.Each(func(k K, v V) bool {
		if ov, ok := other.Get(k); !ok || ov != v {
			equal = false
			return true
		}
		return false
	})
	return equal
}

// Clone returns a map with the same contents, sized to the live count.
// The clone draws a fresh perturbation seed and therefore reinserts
// every pair instead of copying the slot arrays.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{
		hasher:       m.hasher,
		equal:        m.equal,
		seed:         shared.NextSeed(),
		loadFactor:   m.loadFactor,
		defaultValue: m.defaultValue,
		valHasher:    m.valHasher,
		lastSlot:     noSlot,
	}
	c.init(shared.CapacityFor(m.Size(), m.loadFactor))

	m.Each(func(k K, v V) bool {
		c.Put(k, v)
		return false
	})

	return c
}
