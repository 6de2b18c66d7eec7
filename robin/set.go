// Package robin implements hash containers that use linear probing in
// combination with robin hood hashing as collision strategy. Every
// occupied slot caches its ideal slot, the probe distance is derived
// from it. The cache doubles as the occupancy signal (-1 marks a free
// slot), so every key value is storable in-array and no sentinel key
// is reserved.
//
// The expected max probe distance for a full robin hood hash map is
// O(ln(n)); the distance-based early exit bounds the worst case
// lookups tightly around the mean.
// inspired from:
//   - https://programming.guide/robin-hood-hashing.html
//   - https://cs.uwaterloo.ca/research/tr/1986/CS-86-14.pdf
package robin

import (
	"github.com/zhangdinet/hppcrt/shared"
)

const (
	// emptySlot in the cache array signals a free slot.
	emptySlot = -1
)

// Set is a hash set over the robin hood engine.
//
// All operations are single-threaded. Callbacks passed to Each,
// RemoveFunc and RetainFunc must not mutate the set they traverse.
type Set[K comparable] struct {
	keys []K
	// cache holds for every occupied slot the slot the key would
	// occupy in an empty table.
	cache  []int32
	hasher shared.HashFn[K]
	equal  func(a, b K) bool
	// seed is the per-instance hash perturbation, fixed for the
	// lifetime of the set and regenerated for clones.
	seed uint64

	assigned   int
	mask       int
	resizeAt   int
	loadFactor float64

	pool *shared.Pool[SetIterator[K]]
}

//go:inline
func newCacheArray(capacity int) []int32 {
	cache := make([]int32, capacity)
	for i := range cache {
		cache[i] = emptySlot
	}
	return cache
}

//go:inline
func defaultEqual[K comparable](a, b K) bool {
	return a == b
}

// NewSet creates a new ready to use hash set with default settings.
func NewSet[K comparable]() *Set[K] {
	s, err := NewSetWith[K](0, shared.DefaultLoadFactor, nil)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSetSized constructs a set that holds at least `expected` elements
// without reallocating.
func NewSetSized[K comparable](expected int, loadFactor float64) (*Set[K], error) {
	return NewSetWith[K](expected, loadFactor, nil)
}

// NewSetWithStrategy constructs a set whose hashing and equality are
// overridden by the given strategy.
func NewSetWithStrategy[K comparable](strategy shared.Strategy[K]) (*Set[K], error) {
	if strategy == nil {
		return nil, shared.ErrNilStrategy
	}
	return NewSetWith[K](0, shared.DefaultLoadFactor, strategy)
}

// NewSetWith is the fully parameterized constructor. The load factor
// must be in (0,1]. A nil strategy selects the default hasher and `==`.
func NewSetWith[K comparable](expected int, loadFactor float64, strategy shared.Strategy[K]) (*Set[K], error) {
	if err := shared.CheckLoadFactor(loadFactor); err != nil {
		return nil, err
	}

	s := &Set[K]{
		seed:       shared.NextSeed(),
		loadFactor: loadFactor,
	}
	if strategy != nil {
		s.hasher = strategy.Hash
		s.equal = strategy.Equal
	} else {
		s.hasher = shared.GetHasher[K]()
		s.equal = defaultEqual[K]
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
	s.keys = make([]K, capacity)
	s.cache = newCacheArray(capacity)
	s.mask = capacity - 1
	s.resizeAt = shared.ResizeAt(capacity, s.loadFactor)
}

//go:inline
func (s *Set[K]) slot(key K) int {
	return int(shared.Mix(s.hasher(key), s.seed) & uint64(s.mask))
}

// distance returns the number of probes the occupant of `idx` incurred
// on insertion.
//
//go:inline
func (s *Set[K]) distance(idx int) int {
	return (idx - int(s.cache[idx])) & s.mask
}

// Contains returns true if the key is in the set.
//
// The probe stops as soon as its distance exceeds the occupant's: in a
// robin hood table no later occupant can have probed farther for the
// same chain.
func (s *Set[K]) Contains(key K) bool {
	idx := s.slot(key)
	for d := 0; s.cache[idx] != emptySlot; d++ {
		if d > s.distance(idx) {
			return false
		}
		if s.equal(s.keys[idx], key) {
			return true
		}

		// next index
		idx = (idx + 1) & s.mask
	}

	return false
}

// Add inserts the key. Returns true if the key was not present before.
func (s *Set[K]) Add(key K) bool {
	ideal := s.slot(key)

	idx, d := ideal, 0
	for s.cache[idx] != emptySlot {
		if d > s.distance(idx) {
			// the key cannot be in, displace from here
			s.emplace(key, int32(ideal), idx, d)
			s.grown()
			return true
		}
		if s.equal(s.keys[idx], key) {
			return false
		}

		// next index
		idx = (idx + 1) & s.mask
		d++
	}

	s.keys[idx] = key
	s.cache[idx] = int32(ideal)
	s.grown()

	return true
}

// grown accounts a fresh insert and triggers growth once the resize
// threshold is reached. The just-placed entry takes part in the
// rehash.
//
//go:inline
func (s *Set[K]) grown() {
	s.assigned++
	if s.assigned >= s.resizeAt {
		// keep doubling until the threshold clears the live count,
		// small load factors may need more than one step
		capacity := (s.mask + 1) * 2
		for shared.ResizeAt(capacity, s.loadFactor) <= s.assigned {
			capacity *= 2
		}
		s.rehash(capacity)
	}
}

// emplace applies the robin hood creed to all following slots until an
// empty one is found: a poor incoming entry (high distance) takes the
// slot of a rich resident (low distance), which continues probing.
// The result is a monotone distance distribution along every chain.
// The key is known to be absent, no equality checks happen here.
func (s *Set[K]) emplace(key K, ideal int32, idx, d int) {
	for {
		if s.cache[idx] == emptySlot {
			s.keys[idx] = key
			s.cache[idx] = ideal
			return
		}

		if ds := s.distance(idx); d > ds {
			// swap with the resident, continue with the dislodged entry
			key, s.keys[idx] = s.keys[idx], key
			ideal, s.cache[idx] = s.cache[idx], ideal
			d = ds
		}

		// next index
		idx = (idx + 1) & s.mask
		d++
	}
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
	idx := s.slot(key)
	for d := 0; s.cache[idx] != emptySlot; d++ {
		if d > s.distance(idx) {
			return false
		}
		if s.equal(s.keys[idx], key) {
			s.shiftConflicts(idx)
			return true
		}

		// next index
		idx = (idx + 1) & s.mask
	}

	return false
}

// shiftConflicts closes the gap left at `gap` by shifting back every
// following entry whose probe path crosses the gap, preserving the
// no-holes probe invariant without tombstones.
func (s *Set[K]) shiftConflicts(gap int) {
	for distance := 1; ; distance++ {
		idx := (gap + distance) & s.mask
		if s.cache[idx] == emptySlot {
			break
		}

		if s.distance(idx) >= distance {
			// the entry's ideal slot lies at or before the gap
			s.keys[gap] = s.keys[idx]
			s.cache[gap] = s.cache[idx]
			gap = idx
			distance = 0
		}
	}

	var zero K
	s.keys[gap] = zero // drop the reference
	s.cache[gap] = emptySlot
	s.assigned--
}

// RemoveFunc deletes every key the predicate matches and returns the
// number of removed keys. If the predicate panics, the set stays
// consistent with the removals completed so far.
func (s *Set[K]) RemoveFunc(pred func(key K) bool) int {
	before := s.assigned

	for idx := 0; idx <= s.mask; {
		if s.cache[idx] != emptySlot && pred(s.keys[idx]) {
			// the shift may refill this slot, examine it again
			s.shiftConflicts(idx)
		} else {
			idx++
		}
	}

	return before - s.assigned
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

// rehash reinserts all live entries into fresh slot arrays, walking
// the old slots in decreasing index order, which shortens the
// transient conflict chains during the rebuild. The new arrays are
// fully allocated before any state changes.
func (s *Set[K]) rehash(capacity int) {
	var (
		oldKeys    = s.keys
		oldCache   = s.cache
		freshKeys  = make([]K, capacity)
		freshCache = newCacheArray(capacity)
	)

	s.keys = freshKeys
	s.cache = freshCache
	s.mask = capacity - 1
	s.resizeAt = shared.ResizeAt(capacity, s.loadFactor)

	for i := len(oldKeys) - 1; i >= 0; i-- {
		if oldCache[i] == emptySlot {
			continue
		}
		key := oldKeys[i]
		ideal := s.slot(key)
		s.emplace(key, int32(ideal), ideal, 0)
	}
}

// Reserve grows the slot arrays to hold at least n elements without
// further reallocation. If n is lower than that, the function may have
// no effect.
func (s *Set[K]) Reserve(n int) {
	capacity := shared.CapacityFor(n, s.loadFactor)
	if len(s.keys) < capacity {
		s.rehash(capacity)
	}
}

// Clear removes all keys. The slot arrays are kept.
func (s *Set[K]) Clear() {
	var zero K
	for i := range s.keys {
		s.keys[i] = zero
		s.cache[i] = emptySlot
	}
	s.assigned = 0
}

// Size returns the number of keys in the set.
func (s *Set[K]) Size() int {
	return s.assigned
}

// IsEmpty returns true if the set holds no keys.
func (s *Set[K]) IsEmpty() bool {
	return s.assigned == 0
}

// Capacity returns the resize threshold: the insert that brings the
// number of keys up to this value grows the slot arrays.
func (s *Set[K]) Capacity() int {
	return s.resizeAt
}

// Load returns the current fill ratio of the slot arrays.
func (s *Set[K]) Load() float64 {
	return float64(s.assigned) / float64(len(s.keys))
}

// Each calls 'fn' on every key, in decreasing slot order. If 'fn'
// returns true, the iteration stops.
func (s *Set[K]) Each(fn func(key K) bool) {
	for i := s.mask; i >= 0; i-- {
		if s.cache[i] != emptySlot {
			if stop := fn(s.keys[i]); stop {
				// stop iteration
				return
			}
		}
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
		if s.cache[i] != emptySlot {
			h += shared.Mix(s.hasher(s.keys[i]), 0)
		}
	}
	return h
}

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
// every key instead of copying the slot arrays.
func (s *Set[K]) Clone() *Set[K] {
	c := &Set[K]{
		hasher:     s.hasher,
		equal:      s.equal,
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
