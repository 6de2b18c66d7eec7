// Package flat implements open addressing hash containers that use
// linear probing as conflict resolution. A slot is occupied iff its
// key differs from the configured empty sentinel, so no auxiliary
// occupancy array is needed. The sentinel value itself stays a valid
// key: it is tracked in a separate off-band cell.
package flat

import (
	"github.com/zhangdinet/hppcrt/shared"
)

// Set is a hash set over the open addressing engine.
//
// All operations are single-threaded. Callbacks passed to Each,
// RemoveFunc and RetainFunc must not mutate the set they traverse.
type Set[K comparable] struct {
	keys   []K
	empty  K
	hasher shared.HashFn[K]
	// seed is the per-instance hash perturbation. It is fixed for the
	// lifetime of the set and regenerated for clones, which
	// decorrelates probe chains across instances.
	seed uint64

	// assigned counts the occupied non-sentinel slots.
	assigned    int
	hasEmptyKey bool
	// mask is capacity-1, usable for bitwise AND because the slot
	// array length is a power of two.
	mask       int
	resizeAt   int
	loadFactor float64

	pool *shared.Pool[SetIterator[K]]
}

//go:inline
func newKeyArray[K comparable](capacity int, empty K) []K {
	var (
		keys = make([]K, capacity)
		zero K
	)

	if zero != empty {
		// need to "zero" the keys
		for i := range keys {
			keys[i] = empty
		}
	}

	return keys
}

// NewSet creates a new ready to use hash set.
//
// The zero value of K is used as the empty sentinel, see
// NewSetWithHasher to pick another representation.
func NewSet[K comparable]() *Set[K] {
	var empty K // uses default zero representation
	return NewSetWithHasher[K](empty, shared.GetHasher[K]())
}

// NewSetWithHasher constructs a new set with the given hasher.
// Furthermore the representation for an empty slot can be set.
func NewSetWithHasher[K comparable](empty K, hasher shared.HashFn[K]) *Set[K] {
	s, err := NewSetWith(0, shared.DefaultLoadFactor, empty, hasher)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSetSized constructs a set that holds at least `expected` elements
// without reallocating.
func NewSetSized[K comparable](expected int, loadFactor float64) (*Set[K], error) {
	var empty K
	return NewSetWith(expected, loadFactor, empty, shared.GetHasher[K]())
}

// NewSetWith is the fully parameterized constructor. The load factor
// must be in (0,1], the hasher must not be nil.
func NewSetWith[K comparable](expected int, loadFactor float64, empty K, hasher shared.HashFn[K]) (*Set[K], error) {
	if err := shared.CheckLoadFactor(loadFactor); err != nil {
		return nil, err
	}
	if hasher == nil {
		return nil, shared.ErrNilHasher
	}

	s := &Set[K]{
		empty:      empty,
		hasher:     hasher,
		seed:       shared.NextSeed(),
		loadFactor: loadFactor,
	}
	s.init(shared.CapacityFor(expected, loadFactor))

	return s, nil
}

// NewSetFrom constructs a set with the contents of `other`. The new
// set draws a fresh perturbation seed, so the slot layout diverges
// from the source.
func NewSetFrom[K comparable](other *Set[K]) *Set[K] {
	return other.Clone()
}

func (s *Set[K]) init(capacity int) {
	s.keys = newKeyArray(capacity, s.empty)
	s.mask = capacity - 1
	s.resizeAt = shared.ResizeAt(capacity, s.loadFactor)
}

//go:inline
func (s *Set[K]) slot(key K) int {
	return int(shared.Mix(s.hasher(key), s.seed) & uint64(s.mask))
}

// Contains returns true if the key is in the set.
func (s *Set[K]) Contains(key K) bool {
	if key == s.empty {
		return s.hasEmptyKey
	}

	idx := s.slot(key)
	for s.keys[idx] != s.empty {
		if s.keys[idx] == key {
			return true
		}

		// next index
		idx = (idx + 1) & s.mask
	}

	return false
}

// Add inserts the key. Returns true if the key was not present before.
func (s *Set[K]) Add(key K) bool {
	if key == s.empty {
		if s.hasEmptyKey {
			return false
		}
		s.hasEmptyKey = true
		return true
	}

	idx := s.slot(key)
	for s.keys[idx] != s.empty {
		if s.keys[idx] == key {
			return false
		}

		// next index
		idx = (idx + 1) & s.mask
	}

	s.keys[idx] = key
	s.assigned++
	if s.assigned >= s.resizeAt {
		s.grow()
	}

	return true
}

// AddN inserts all given keys and returns the number of keys that were
// not present before.
func (s *Set[K]) AddN(keys ...K) int {
	added := 0
	for _, k := range keys {
		if s.Add(k) {
			added++
		}
	}
	return added
}

// AddAll inserts every key of `other` and returns the number of keys
// that were not present before.
func (s *Set[K]) AddAll(other *Set[K]) int {
	added := 0
	other.Each(func(k K) bool {
		if s.Add(k) {
			added++
		}
		return false
	})
	return added
}

// Remove deletes the key from the set. Returns true if the key was in.
func (s *Set[K]) Remove(key K) bool {
	if key == s.empty {
		if s.hasEmptyKey {
			s.hasEmptyKey = false
			return true
		}
		return false
	}

	idx := s.slot(key)
	for s.keys[idx] != s.empty {
		if s.keys[idx] == key {
			s.shiftConflicts(idx)
			return true
		}

		// next index
		idx = (idx + 1) & s.mask
	}

	return false
}

// shiftConflicts closes the gap left at `gap` by shifting back every
// following entry whose probe path crosses the gap. This keeps the
// invariant that all slots between an entry's ideal slot and its
// current slot are occupied, without tombstones.
func (s *Set[K]) shiftConflicts(gap int) {
	for distance := 1; ; distance++ {
		idx := (gap + distance) & s.mask
		if s.keys[idx] == s.empty {
			break
		}

		shift := (idx - s.slot(s.keys[idx])) & s.mask
		if shift >= distance {
			// the entry's ideal slot lies at or before the gap
			s.keys[gap] = s.keys[idx]
			gap = idx
			distance = 0
		}
	}

	s.keys[gap] = s.empty
	s.assigned--
}

// RemoveFunc deletes every key the predicate matches and returns the
// number of removed keys. If the predicate panics, the set stays
// consistent with the removals completed so far.
func (s *Set[K]) RemoveFunc(pred func(key K) bool) int {
	before := s.Size()

	if s.hasEmptyKey && pred(s.empty) {
		s.hasEmptyKey = false
	}

	for idx := 0; idx <= s.mask; {
		if s.keys[idx] != s.empty && pred(s.keys[idx]) {
			// the shift may refill this slot, examine it again
			s.shiftConflicts(idx)
		} else {
			idx++
		}
	}

	return before - s.Size()
}

// RetainFunc deletes every key the predicate does not match and
// returns the number of removed keys.
func (s *Set[K]) RetainFunc(pred func(key K) bool) int {
	return s.RemoveFunc(func(k K) bool { return !pred(k) })
}

// RemoveAll deletes every key that is contained in `other` and returns
// the number of removed keys.
func (s *Set[K]) RemoveAll(other shared.Lookup[K]) int {
	return s.RemoveFunc(other.Contains)
}

// RetainAll deletes every key that is not contained in `other` and
// returns the number of removed keys.
func (s *Set[K]) RetainAll(other shared.Lookup[K]) int {
	return s.RemoveFunc(func(k K) bool { return !other.Contains(k) })
}

//go:inline
func (s *Set[K]) grow() {
	// keep doubling until the threshold clears the live count, small
	// load factors may need more than one step
	capacity := (s.mask + 1) * 2
	for shared.ResizeAt(capacity, s.loadFactor) <= s.assigned {
		capacity *= 2
	}
	s.rehash(capacity)
}

// rehash reinserts all live entries into a fresh slot array. The old
// slots are walked in decreasing index order, which shortens the
// transient conflict chains during the rebuild. The new array is fully
// allocated before any state changes, so an allocation failure leaves
// the set intact.
func (s *Set[K]) rehash(capacity int) {
	var (
		old   = s.keys
		fresh = newKeyArray(capacity, s.empty)
	)

	s.keys = fresh
	s.mask = capacity - 1
	s.resizeAt = shared.ResizeAt(capacity, s.loadFactor)

	for i := len(old) - 1; i >= 0; i-- {
		key := old[i]
		if key == s.empty {
			continue
		}

		idx := s.slot(key)
		for s.keys[idx] != s.empty {
			idx = (idx + 1) & s.mask
		}
		s.keys[idx] = key
	}
}

// Reserve grows the slot array to hold at least n elements without
// further reallocation. If n is lower than that, the function may have
// no effect.
func (s *Set[K]) Reserve(n int) {
	capacity := shared.CapacityFor(n, s.loadFactor)
	if len(s.keys) < capacity {
		s.rehash(capacity)
	}
}

// Clear removes all keys. The slot array is kept.
func (s *Set[K]) Clear() {
	for i := range s.keys {
		s.keys[i] = s.empty
	}

	s.assigned = 0
	s.hasEmptyKey = false
}

// Size returns the number of keys in the set.
func (s *Set[K]) Size() int {
	if s.hasEmptyKey {
		return s.assigned + 1
	}
	return s.assigned
}

// IsEmpty returns true if the set holds no keys.
func (s *Set[K]) IsEmpty() bool {
	return s.Size() == 0
}

// Capacity returns the resize threshold: the insert that brings the
// number of in-array keys up to this value grows the slot array.
func (s *Set[K]) Capacity() int {
	return s.resizeAt
}

// Load returns the current fill ratio of the slot array.
func (s *Set[K]) Load() float64 {
	return float64(s.assigned) / float64(len(s.keys))
}

// Each calls 'fn' on every key, in decreasing slot order with the
// sentinel cell last. If 'fn' returns true, the iteration stops.
func (s *Set[K]) Each(fn func(key K) bool) {
	for i := s.mask; i >= 0; i-- {
		if s.keys[i] != s.empty {
			if stop := fn(s.keys[i]); stop {
				// stop iteration
				return
			}
		}
	}

	if s.hasEmptyKey {
		fn(s.empty)
	}
}

// AppendTo appends all keys to dst and returns the extended buffer.
func (s *Set[K]) AppendTo(dst []K) []K {
	s.Each(func(k K) bool {
		dst = append(dst, k)
		return false
	})
	return dst
}

// HashCode returns an order-independent hash over the contents. Equal
// sets report equal hash codes.
func (s *Set[K]) HashCode() uint64 {
	var h uint64
	for i := s.mask; i >= 0; i-- {
		if s.keys[i] != s.empty {
			h += shared.Mix(s.hasher(s.keys[i]), 0)
		}
	}
	if s.hasEmptyKey {
		h += emptyCellHash
	}
	return h
}

// emptyCellHash is the fixed summand the off-band sentinel cell
// contributes to a container hash code.
const emptyCellHash = 0x9e3779b97f4a7c15

// Equals returns true if `other` holds exactly the same keys.
func (s *Set[K]) Equals(other *Set[K]) bool {
	if other == nil || s.Size() != other.Size() {
		return false
	}

	equal := true
	s.Each(func(k K) bool {
		if !other.Contains(k) {
			equal = false
			return true
		}
		return false
	})
	return equal
}

// Clone returns a set with the same contents, sized to the live count.
// The clone draws a fresh perturbation seed and therefore reinserts
// every key instead of copying the slot array.
func (s *Set[K]) Clone() *Set[K] {
	c := &Set[K]{
		empty:      s.empty,
		hasher:     s.hasher,
		seed:       shared.NextSeed(),
		loadFactor: s.loadFactor,
	}
	c.init(shared.CapacityFor(s.Size(), s.loadFactor))

	s.Each(func(k K) bool {
		c.Add(k)
		return false
	})

	return c
}
