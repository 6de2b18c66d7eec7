package flat_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangdinet/hppcrt/flat"
)

func TestMapBasics(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()

	v, found := m.Get(1)
	assert.False(t, found)
	assert.Equal(t, uint32(0), v)

	old, found := m.Put(1, 100)
	assert.False(t, found)
	assert.Equal(t, uint32(0), old)
	assert.Equal(t, 1, m.Size())

	old, found = m.Put(1, 200)
	assert.True(t, found)
	assert.Equal(t, uint32(100), old)
	assert.Equal(t, 1, m.Size())

	v, found = m.Get(1)
	assert.True(t, found)
	assert.Equal(t, uint32(200), v)

	removed, found := m.Remove(1)
	assert.True(t, found)
	assert.Equal(t, uint32(200), removed)
	assert.True(t, m.IsEmpty())
}

func TestMapSentinelKey(t *testing.T) {
	m := flat.NewMap[uint64, string]()

	_, found := m.Put(0, "zero")
	assert.False(t, found)
	assert.True(t, m.ContainsKey(0))
	assert.Equal(t, 1, m.Size())

	v, found := m.Get(0)
	assert.True(t, found)
	assert.Equal(t, "zero", v)

	old, found := m.Put(0, "null")
	assert.True(t, found)
	assert.Equal(t, "zero", old)

	removed, found := m.Remove(0)
	assert.True(t, found)
	assert.Equal(t, "null", removed)
	assert.False(t, m.ContainsKey(0))
}

func TestMapCrossCheck(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	stdm := make(map[uint64]uint32)

	const nops = 20000

	for i := 0; i < nops; i++ {
		key := uint64(rand.Intn(500))
		val := rand.Uint32()

		switch rand.Intn(4) {
		case 0:
			v1, ok1 := m.Get(key)
			v2, ok2 := stdm[key]
			require.Equal(t, ok2, ok1)
			require.Equal(t, v2, v1)
		case 1:
			fallthrough
		case 2:
			_, wasIn := stdm[key]
			stdm[key] = val
			_, found := m.Put(key, val)
			require.Equal(t, wasIn, found)
		case 3:
			_, wasIn := stdm[key]
			delete(stdm, key)
			_, found := m.Remove(key)
			require.Equal(t, wasIn, found)
		}

		require.Equal(t, len(stdm), m.Size())
	}

	m.Each(func(k uint64, v uint32) bool {
		ov, ok := stdm[k]
		require.True(t, ok)
		require.Equal(t, ov, v)
		return false
	})
}

func TestDefaultValue(t *testing.T) {
	m := flat.NewMap[uint64, int64]()
	m.SetDefaultValue(-1)

	assert.Equal(t, int64(-1), m.GetOrDefault(7))

	removed, found := m.Remove(7)
	assert.False(t, found)
	assert.Equal(t, int64(-1), removed)

	m.Put(7, 70)
	assert.Equal(t, int64(70), m.GetOrDefault(7))
}

func TestPutIfAbsentAndPutAll(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()

	assert.True(t, m.PutIfAbsent(1, 10))
	assert.False(t, m.PutIfAbsent(1, 11))
	v, _ := m.Get(1)
	assert.Equal(t, uint32(10), v)

	other := flat.NewMap[uint64, uint32]()
	other.Put(1, 111)
	other.Put(2, 222)
	other.Put(0, 42)

	assert.Equal(t, 2, m.PutAll(other), "only keys 2 and 0 are new")
	assert.Equal(t, 3, m.Size())
	v, _ = m.Get(1)
	assert.Equal(t, uint32(111), v, "PutAll overwrites")
}

func TestLAccessors(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	m.Put(5, 50)
	m.Put(9, 90)

	require.True(t, m.ContainsKey(5))
	assert.Equal(t, uint64(5), m.LKey())
	assert.Equal(t, uint32(50), m.LGet())
	assert.GreaterOrEqual(t, m.LSlot(), 0)

	old := m.LSet(55)
	assert.Equal(t, uint32(50), old)
	v, _ := m.Get(5)
	assert.Equal(t, uint32(55), v)
}

func TestLAccessorsSentinel(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	m.Put(0, 7)

	require.True(t, m.ContainsKey(0))
	assert.Equal(t, uint64(0), m.LKey())
	assert.Equal(t, uint32(7), m.LGet())
	assert.Negative(t, m.LSlot(), "the off-band cell has no real slot")

	m.LSet(8)
	v, _ := m.Get(0)
	assert.Equal(t, uint32(8), v)
}

func TestLAccessorsPanicWithoutLookup(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	m.Put(5, 50)

	assert.Panics(t, func() { m.LGet() }, "no ContainsKey yet")

	require.True(t, m.ContainsKey(5))
	m.Put(6, 60) // mutation invalidates the memo
	assert.Panics(t, func() { m.LGet() })

	require.False(t, m.ContainsKey(999))
	assert.Panics(t, func() { m.LKey() }, "failed lookup leaves no memo")
}

func TestViews(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	m.Put(0, 100)
	m.Put(1, 101)
	m.Put(2, 102)

	keys := m.Keys()
	assert.Equal(t, 3, keys.Size())
	assert.True(t, keys.Contains(0))
	assert.True(t, keys.Contains(2))
	assert.False(t, keys.Contains(3))
	assert.Empty(t, cmp.Diff([]uint64{0, 1, 2}, keys.AppendTo(nil), sorted()))

	vals := m.Values()
	assert.Equal(t, 3, vals.Size())
	assert.True(t, vals.Contains(100))
	assert.False(t, vals.Contains(999))
	assert.Empty(t, cmp.Diff([]uint32{100, 101, 102}, vals.AppendTo(nil),
		cmpopts.SortSlices(func(a, b uint32) bool { return a < b })))
}

func TestNumericOps(t *testing.T) {
	m := flat.NewMap[string, int64]()

	assert.Equal(t, int64(1), flat.AddTo(m, "hits", 1))
	assert.Equal(t, int64(2), flat.AddTo(m, "hits", 1))
	assert.Equal(t, int64(7), flat.PutOrAdd(m, "misses", 7, 1))
	assert.Equal(t, int64(8), flat.PutOrAdd(m, "misses", 7, 1))

	v, _ := m.Get("hits")
	assert.Equal(t, int64(2), v)
}

func TestMapEqualsAndHashCode(t *testing.T) {
	a := flat.NewMap[uint64, uint32]()
	b := flat.NewMap[uint64, uint32]()

	pairs := map[uint64]uint32{0: 10, 1: 11, 500: 12, 1 << 33: 13}
	for k, v := range pairs {
		a.Put(k, v)
	}
	for k, v := range pairs {
		b.Put(k, v)
	}

	assert.True(t, a.Equals(b))
	assert.Equal(t, a.HashCode(), b.HashCode())

	b.Put(1, 999)
	assert.False(t, a.Equals(b), "same keys, one value differs")
}

func TestMapClone(t *testing.T) {
	a := flat.NewMap[uint64, uint32]()
	a.Put(0, 1)
	a.Put(1, 2)
	a.Put(2, 3)

	b := a.Clone()
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.HashCode(), b.HashCode())

	b.Put(0, 42)
	v, _ := a.Get(0)
	assert.Equal(t, uint32(1), v, "manipulated origin")

	c := flat.NewMapFrom(b)
	assert.True(t, b.Equals(c))
}

func TestMapRemoveFunc(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	for k := uint64(0); k < 20; k++ {
		m.Put(k, uint32(k)*10)
	}

	removed := m.RemoveFunc(func(k uint64, v uint32) bool { return v >= 100 })
	assert.Equal(t, 10, removed)
	assert.Equal(t, 10, m.Size())
	for k := uint64(0); k < 10; k++ {
		assert.True(t, m.ContainsKey(k))
	}
}

func TestMapIterator(t *testing.T) {
	m := flat.NewMap[uint64, uint32]()
	m.Put(0, 100)
	m.Put(7, 107)
	m.Put(9, 109)

	got := make(map[uint64]uint32)
	it := m.Iterator()
	for it.Next() {
		got[it.Key()] = it.Value()
	}
	assert.Equal(t, map[uint64]uint32{0: 100, 7: 107, 9: 109}, got)
}

func Example() {
	m := flat.NewMap[string, int]()
	m.Put("foo", 42)
	m.Put("bar", 13)

	fmt.Println(m.Get("foo"))
	fmt.Println(m.Get("baz"))

	m.Remove("foo")

	fmt.Println(m.Get("foo"))
	fmt.Println(m.Get("bar"))

	m.Clear()

	fmt.Println(m.Get("foo"))
	fmt.Println(m.Get("bar"))
	// Output:
	// 42 true
	// 0 false
	// 0 false
	// 13 true
	// 0 false
	// 0 false
}
