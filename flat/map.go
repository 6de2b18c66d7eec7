package flat

import (
	"fmt"

	"github.com/zhangdinet/hppcrt/shared"
)

const (
	// noSlot marks the lookup memo as invalid.
	noSlot = -1
	// emptyKeySlot marks the lookup memo as pointing at the off-band
	// sentinel cell.
	emptyKeySlot = -2
)

// Map is a hash map over the same open addressing engine as Set, with
// a parallel value array. The empty sentinel key is stored off-band
// together with its value, so every K value is usable as a key.
//
// All operations are single-threaded. Callbacks passed to Each,
// RemoveFunc and RetainFunc must not mutate the map they traverse.
type Map[K comparable, V comparable] struct {
	keys   []K
	values []V
	empty  K
	hasher shared.HashFn[K]
	seed   uint64

	assigned    int
	hasEmptyKey bool
	// emptyValue is valid iff hasEmptyKey.
	emptyValue V
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

// NewMap creates a new ready to use hash map.
//
// The zero value of K is used as the empty sentinel, see
// NewMapWithHasher to pick another representation.
func NewMap[K comparable, V comparable]() *Map[K, V] {
	var empty K // uses default zero representation
	return NewMapWithHasher[K, V](empty, shared.GetHasher[K]())
}

// NewMapWithHasher constructs a new map with the given hasher.
// Furthermore the representation for an empty slot can be set.
func NewMapWithHasher[K comparable, V comparable](empty K, hasher shared.HashFn[K]) *Map[K, V] {
	m, err := NewMapWith[K, V](0, shared.DefaultLoadFactor, empty, hasher)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// NewMapSized constructs a map that holds at least `expected` entries
// without reallocating.
func NewMapSized[K comparable, V comparable](expected int, loadFactor float64) (*Map[K, V], error) {
	var empty K
	return NewMapWith[K, V](expected, loadFactor, empty, shared.GetHasher[K]())
}

// NewMapWith is the fully parameterized constructor. The load factor
// must be in (0,1], the hasher must not be nil.
func NewMapWith[K comparable, V comparable](expected int, loadFactor float64, empty K, hasher shared.HashFn[K]) (*Map[K, V], error) {
	if err := shared.CheckLoadFactor(loadFactor); err != nil {
		return nil, err
	}
	if hasher == nil {
		return nil, shared.ErrNilHasher
	}

	m := &Map[K, V]{
		empty:      empty,
		hasher:     hasher,
		seed:       shared.NextSeed(),
		loadFactor: loadFactor,
		lastSlot:   noSlot,
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
	m.keys = newKeyArray(capacity, m.empty)
	m.values = make([]V, capacity)
	m.mask = capacity - 1
	m.resizeAt = shared.ResizeAt(capacity, m.loadFactor)
}

//go:inline
func (m *Map[K, V]) slot(key K) int {
	return int(shared.Mix(m.hasher(key), m.seed) & uint64(m.mask))
}

// SetDefaultValue changes the value reported for absent keys by
// GetOrDefault and Remove.
func (m *Map[K, V]) SetDefaultValue(v V) {
	m.defaultValue = v
}

// Get returns the value stored for this key, or false if there is no
// such value.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if key == m.empty {
		if m.hasEmptyKey {
			return m.emptyValue, true
		}
		var v V
		return v, false
	}

	idx := m.slot(key)
	for m.keys[idx] != m.empty {
		if m.keys[idx] == key {
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
	if key == m.empty {
		if m.hasEmptyKey {
			m.lastSlot = emptyKeySlot
			return true
		}
		m.lastSlot = noSlot
		return false
	}

	idx := m.slot(key)
	for m.keys[idx] != m.empty {
		if m.keys[idx] == key {
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

	if key == m.empty {
		if m.hasEmptyKey {
			old := m.emptyValue
			m.emptyValue = val
			return old, true
		}
		m.hasEmptyKey = true
		m.emptyValue = val
		return m.defaultValue, false
	}

	idx := m.slot(key)
	for m.keys[idx] != m.empty {
		if m.keys[idx] == key {
			old := m.values[idx]
			m.values[idx] = val
			return old, true
		}

		// next index
		idx = (idx + 1) & m.mask
	}

	m.keys[idx] = key
	m.values[idx] = val
	m.assigned++
	if m.assigned >= m.resizeAt {
		m.grow()
	}

	return m.defaultValue, false
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

	if key == m.empty {
		if m.hasEmptyKey {
			old := m.emptyValue
			m.hasEmptyKey = false
			var zero V
			m.emptyValue = zero
			return old, true
		}
		return m.defaultValue, false
	}

	idx := m.slot(key)
	for m.keys[idx] != m.empty {
		if m.keys[idx] == key {
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
		if m.keys[idx] == m.empty {
			break
		}

		shift := (idx - m.slot(m.keys[idx])) & m.mask
		if shift >= distance {
			// the entry's ideal slot lies at or before the gap
			m.keys[gap] = m.keys[idx]
			m.values[gap] = m.values[idx]
			gap = idx
			distance = 0
		}
	}

	m.keys[gap] = m.empty
	var zero V
	m.values[gap] = zero
	m.assigned--
}

// RemoveFunc deletes every pair the predicate matches and returns the
// number of removed pairs. If the predicate panics, the map stays
// consistent with the removals completed so far.
func (m *Map[K, V]) RemoveFunc(pred func(key K, val V) bool) int {
	m.lastSlot = noSlot
	before := m.Size()

	if m.hasEmptyKey && pred(m.empty, m.emptyValue) {
		m.hasEmptyKey = false
		var zero V
		m.emptyValue = zero
	}

	for idx := 0; idx <= m.mask; {
		if m.keys[idx] != m.empty && pred(m.keys[idx], m.values[idx]) {
			// the shift may refill this slot, examine it again
			m.shiftConflicts(idx)
		} else {
			idx++
		}
	}

	return before - m.Size()
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

//go:inline
func (m *Map[K, V]) grow() {
	// keep doubling until the threshold clears the live count, small
	// load factors may need more than one step
	capacity := (m.mask + 1) * 2
	for shared.ResizeAt(capacity, m.loadFactor) <= m.assigned {
		capacity *= 2
	}
	m.rehash(capacity)
}

// rehash reinserts all live entries into fresh slot arrays, walking
// the old slots in decreasing index order. Both arrays are fully
// allocated before any state changes.
func (m *Map[K, V]) rehash(capacity int) {
	var (
		oldKeys   = m.keys
		oldValues = m.values
		freshKeys = newKeyArray(capacity, m.empty)
		freshVals = make([]V, capacity)
	)

	m.keys = freshKeys
	m.values = freshVals
	m.mask = capacity - 1
	m.resizeAt = shared.ResizeAt(capacity, m.loadFactor)

	for i := len(oldKeys) - 1; i >= 0; i-- {
		key := oldKeys[i]
		if key == m.empty {
			continue
		}

		idx := m.slot(key)
		for m.keys[idx] != m.empty {
			idx = (idx + 1) & m.mask
		}
		m.keys[idx] = key
		m.values[idx] = oldValues[i]
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

	for i := range m.keys {
		m.keys[i] = m.empty
	}
	var zero V
	for i := range m.values {
		m.values[i] = zero
	}

	m.assigned = 0
	m.hasEmptyKey = false
	m.emptyValue = zero
}

// Size returns the number of pairs in the map.
func (m *Map[K, V]) Size() int {
	if m.hasEmptyKey {
		return m.assigned + 1
	}
	return m.assigned
}

// IsEmpty returns true if the map holds no pairs.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Size() == 0
}

// Capacity returns the resize threshold: the insert that brings the
// number of in-array keys up to this value grows the slot arrays.
func (m *Map[K, V]) Capacity() int {
	return m.resizeAt
}

// Load returns the current fill ratio of the slot arrays.
func (m *Map[K, V]) Load() float64 {
	return float64(m.assigned) / float64(len(m.keys))
}

// Each calls 'fn' on every key-value pair, in decreasing slot order
// with the sentinel cell last. If 'fn' returns true, the iteration
// stops.
func (m *Map[K, V]) Each(fn func(key K, val V) bool) {
	for i := m.mask; i >= 0; i-- {
		if m.keys[i] != m.empty {
			if stop := fn(m.keys[i], m.values[i]); stop {
				// stop iteration
				return
			}
		}
	}

	if m.hasEmptyKey {
		fn(m.empty, m.emptyValue)
	}
}

// LSlot returns the slot memoized by the most recent successful
// ContainsKey. The off-band sentinel cell reports a negative slot.
func (m *Map[K, V]) LSlot() int {
	m.checkLastSlot()
	return m.lastSlot
}

// LKey returns the key found by the most recent successful ContainsKey.
func (m *Map[K, V]) LKey() K {
	m.checkLastSlot()
	if m.lastSlot == emptyKeySlot {
		return m.empty
	}
	return m.keys[m.lastSlot]
}

// LGet returns the value of the entry found by the most recent
// successful ContainsKey.
func (m *Map[K, V]) LGet() V {
	m.checkLastSlot()
	if m.lastSlot == emptyKeySlot {
		return m.emptyValue
	}
	return m.values[m.lastSlot]
}

// LSet overwrites the value of the entry found by the most recent
// successful ContainsKey and returns the previous value.
func (m *Map[K, V]) LSet(val V) V {
	m.checkLastSlot()
	if m.lastSlot == emptyKeySlot {
		old := m.emptyValue
		m.emptyValue = val
		return old
	}
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
		if m.keys[i] != m.empty {
			h += shared.Mix(m.hasher(m.keys[i]), 0) + shared.Mix(m.valHasher(m.values[i]), 0)
		}
	}
	if m.hasEmptyKey {
		h += emptyCellHash + shared.Mix(m.valHasher(m.emptyValue), 0)
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
		empty:        m.empty,
		hasher:       m.hasher,
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
