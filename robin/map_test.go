package robin_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangdinet/hppcrt/robin"
	"github.com/zhangdinet/hppcrt/shared"
)

func TestMapBasics(t *testing.T) {
	m := robin.NewMap[uint64, uint32]()

	old, found := m.Put(1, 100)
	assert.False(t, found)
	assert.Equal(t, uint32(0), old)

	old, found = m.Put(1, 200)
	assert.True(t, found)
	assert.Equal(t, uint32(100), old)
	assert.Equal(t, 1, m.Size())

	v, found := m.Get(1)
	assert.True(t, found)
	assert.Equal(t, uint32(200), v)

	removed, found := m.Remove(1)
	assert.True(t, found)
	assert.Equal(t, uint32(200), removed)
	assert.True(t, m.IsEmpty())
}

func TestMapCrossCheck(t *testing.T) {
	m := robin.NewMap[uint64, uint32]()
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

func TestMapStrategy(t *testing.T) {
	// case-insensitive keys via a strategy
	hash := shared.GetHasher[string]()
	strategy := shared.FuncStrategy[string]{
		HashFn:  func(s string) uint64 { return hash(normalize(s)) },
		EqualFn: func(a, b string) bool { return normalize(a) == normalize(b) },
	}
	m, err := robin.NewMapWithStrategy[string, int](strategy)
	require.NoError(t, err)

	m.Put("Foo", 1)
	old, found := m.Put("FOO", 2)
	assert.True(t, found)
	assert.Equal(t, 1, old)
	assert.Equal(t, 1, m.Size())

	v, found := m.Get("foo")
	assert.True(t, found)
	assert.Equal(t, 2, v)
}

func normalize(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func TestMapDefaultValue(t *testing.T) {
	m := robin.NewMap[uint64, int64]()
	m.SetDefaultValue(-1)

	assert.Equal(t, int64(-1), m.GetOrDefault(7))
	removed, found := m.Remove(7)
	assert.False(t, found)
	assert.Equal(t, int64(-1), removed)

	old, found := m.Put(7, 70)
	assert.False(t, found)
	assert.Equal(t, int64(-1), old, "the miss report uses the default value")
}

func TestMapLAccessors(t *testing.T) {
	m := robin.NewMap[uint64, uint32]()
	m.Put(5, 50)
	m.Put(9, 90)

	require.True(t, m.ContainsKey(9))
	assert.Equal(t, uint64(9), m.LKey())
	assert.Equal(t, uint32(90), m.LGet())
	assert.GreaterOrEqual(t, m.LSlot(), 0)

	old := m.LSet(99)
	assert.Equal(t, uint32(90), old)
	v, _ := m.Get(9)
	assert.Equal(t, uint32(99), v)

	m.Remove(5) // mutation invalidates the memo
	assert.Panics(t, func() { m.LGet() })
}

func TestMapPutAllAndViews(t *testing.T) {
	a := robin.NewMap[uint64, uint32]()
	a.Put(1, 10)

	b := robin.NewMap[uint64, uint32]()
	b.Put(1, 11)
	b.Put(2, 22)

	assert.Equal(t, 1, a.PutAll(b))
	assert.Equal(t, 2, a.Size())

	keys := a.Keys()
	assert.True(t, keys.Contains(1))
	assert.True(t, keys.Contains(2))
	assert.Equal(t, 2, keys.Size())

	vals := a.Values()
	assert.True(t, vals.Contains(11))
	assert.True(t, vals.Contains(22))
	assert.False(t, vals.Contains(10))
}

func TestMapNumericOps(t *testing.T) {
	m := robin.NewMap[string, float64]()

	assert.Equal(t, 0.5, robin.AddTo(m, "x", 0.5))
	assert.Equal(t, 1.0, robin.AddTo(m, "x", 0.5))
	assert.Equal(t, 3.0, robin.PutOrAdd(m, "y", 3.0, 1.0))
	assert.Equal(t, 4.0, robin.PutOrAdd(m, "y", 3.0, 1.0))
}

func TestMapEqualsHashCodeClone(t *testing.T) {
	a := robin.NewMap[uint64, uint32]()
	for k := uint64(0); k < 50; k++ {
		a.Put(k, uint32(k)+1000)
	}

	b := a.Clone()
	assert.True(t, a.Equals(b))
	assert.Equal(t, a.HashCode(), b.HashCode())

	b.Put(0, 9999)
	assert.False(t, a.Equals(b))
	v, _ := a.Get(0)
	assert.Equal(t, uint32(1000), v, "manipulated origin")

	c := robin.NewMapFrom(a)
	assert.True(t, a.Equals(c))
}

func TestMapIteratorAndRemoveFunc(t *testing.T) {
	m := robin.NewMap[uint64, uint32]()
	for k := uint64(0); k < 20; k++ {
		m.Put(k, uint32(k)*10)
	}

	seen := make(map[uint64]uint32)
	it := m.Iterator()
	for it.Next() {
		seen[it.Key()] = it.Value()
	}
	assert.Len(t, seen, 20)

	removed := m.RemoveFunc(func(k uint64, v uint32) bool { return v >= 100 })
	assert.Equal(t, 10, removed)
	assert.Equal(t, 10, m.Size())
}

func Example() {
	m := robin.NewMap[string, int]()
	m.Put("foo", 42)
	m.Put("bar", 13)

	fmt.Println(m.Get("foo"))
	fmt.Println(m.Get("baz"))

	m.Remove("foo")

	fmt.Println(m.Get("foo"))
	fmt.Println(m.Get("bar"))
	// Output:
	// 42 true
	// 0 false
	// 0 false
	// 13 true
}
