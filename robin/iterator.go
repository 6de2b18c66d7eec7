package robin

import "github.com/zhangdinet/hppcrt/shared"

// SetIterator is a cursor over a Set. Cursors walk the slots in
// decreasing index order. A cursor is invalidated by any mutation of
// its set.
//
// Exhausting the cursor returns it to the set's pool automatically;
// leaving a loop early requires an explicit Release.
type SetIterator[K comparable] struct {
	set  *Set[K]
	next int
	cur  int
	key  K

	done bool
}

// Iterator borrows a cursor from the set's pool.
func (s *Set[K]) Iterator() *SetIterator[K] {
	if s.pool == nil {
		s.pool = shared.NewPool(func() *SetIterator[K] { return new(SetIterator[K]) })
	}

	it := s.pool.Borrow()
	it.set = s
	it.next = s.mask
	it.done = false

	return it
}

// Next advances to the next key. It returns false when the set is
// exhausted, releasing the cursor back to the pool.
func (it *SetIterator[K]) Next() bool {
	if it.done {
		return false
	}

	s := it.set
	for i := it.next; i >= 0; i-- {
		if s.cache[i] != emptySlot {
			it.key = s.keys[i]
			it.cur = i
			it.next = i - 1
			return true
		}
	}
	it.next = -1

	it.Release()
	return false
}

// Key returns the key at the cursor.
func (it *SetIterator[K]) Key() K {
	return it.key
}

// Slot returns the slot index at the cursor.
func (it *SetIterator[K]) Slot() int {
	return it.cur
}

// Release returns the cursor to the pool. Required after an early
// loop exit; a no-op after normal exhaustion.
func (it *SetIterator[K]) Release() {
	if it.done {
		return
	}
	it.done = true

	s := it.set
	it.set = nil
	s.pool.Release(it)
}

// MapIterator is a cursor over a Map, see SetIterator.
type MapIterator[K comparable, V comparable] struct {
	m    *Map[K, V]
	next int
	cur  int
	key  K
	val  V

	done bool
}

// Iterator borrows a cursor from the map's pool.
func (m *Map[K, V]) Iterator() *MapIterator[K, V] {
	if m.pool == nil {
		m.pool = shared.NewPool(func() *MapIterator[K, V] { return new(MapIterator[K, V]) })
	}

	it := m.pool.Borrow()
	it.m = m
	it.next = m.mask
	it.done = false

	return it
}

// Next advances to the next pair. It returns false when the map is
// exhausted, releasing the cursor back to the pool.
func (it *MapIterator[K, V]) Next() bool {
	if it.done {
		return false
	}

	m := it.m
	for i := it.next; i >= 0; i-- {
		if m.cache[i] != emptySlot {
			it.key = m.keys[i]
			it.val = m.values[i]
			it.cur = i
			it.next = i - 1
			return true
		}
	}
	it.next = -1

	it.Release()
	return false
}

// Key returns the key at the cursor.
func (it *MapIterator[K, V]) Key() K {
	return it.key
}

// Value returns the value at the cursor.
func (it *MapIterator[K, V]) Value() V {
	return it.val
}

// Slot returns the slot index at the cursor.
func (it *MapIterator[K, V]) Slot() int {
	return it.cur
}

// Release returns the cursor to the pool. Required after an early
// loop exit; a no-op after normal exhaustion.
func (it *MapIterator[K, V]) Release() {
	if it.done {
		return
	}
	it.done = true

	m := it.m
	it.m = nil
	m.pool.Release(it)
}

// KeyView is a read-only view of a map's keys.
type KeyView[K comparable, V comparable] struct {
	m *Map[K, V]
}

// Keys returns a live view of the map's keys.
func (m *Map[K, V]) Keys() KeyView[K, V] {
	return KeyView[K, V]{m: m}
}

func (kv KeyView[K, V]) Size() int { return kv.m.Size() }

func (kv KeyView[K, V]) IsEmpty() bool { return kv.m.IsEmpty() }

func (kv KeyView[K, V]) Contains(k K) bool { return kv.m.ContainsKey(k) }

// Each calls 'fn' on every key. If 'fn' returns true, the iteration
// stops.
func (kv KeyView[K, V]) Each(fn func(key K) bool) {
	kv.m.Each(func(k K, _ V) bool { return fn(k) })
}

// AppendTo appends all keys to dst and returns the extended buffer.
func (kv KeyView[K, V]) AppendTo(dst []K) []K {
	kv.Each(func(k K) bool {
		dst = append(dst, k)
		return false
	})
	return dst
}

// ValueView is a read-only view of a map's values.
type ValueView[K comparable, V comparable] struct {
	m *Map[K, V]
}

// Values returns a live view of the map's values.
func (m *Map[K, V]) Values() ValueView[K, V] {
	return ValueView[K, V]{m: m}
}

func (vv ValueView[K, V]) Size() int { return vv.m.Size() }

func (vv ValueView[K, V]) IsEmpty() bool { return vv.m.IsEmpty() }

// Contains scans for the value, it is O(capacity).
func (vv ValueView[K, V]) Contains(val V) bool {
	found := false
	vv.m.Each(func(_ K, v V) bool {
		if v == val {
			found = true
			return true
		}
		return false
	})
	return found
}

// Each calls 'fn' on every value. If 'fn' returns true, the iteration
// stops.
func (vv ValueView[K, V]) Each(fn func(val V) bool) {
	vv.m.Each(func(_ K, v V) bool { return fn(v) })
}

// AppendTo appends all values to dst and returns the extended buffer.
func (vv ValueView[K, V]) AppendTo(dst []V) []V {
	vv.Each(func(v V) bool {
		dst = append(dst, v)
		return false
	})
	return dst
}
