package flat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkProbeInvariants fails if any occupied slot has a hole between
// its ideal slot and its position, or if the guaranteed empty slot is
// gone.
func checkProbeInvariants[K comparable](t *testing.T, s *Set[K]) {
	t.Helper()

	require.Less(t, s.assigned, s.resizeAt, "the resize threshold was crossed")
	require.LessOrEqual(t, s.resizeAt, s.mask, "at least one slot must stay empty")

	for i := 0; i <= s.mask; i++ {
		if s.keys[i] == s.empty {
			continue
		}
		for j := s.slot(s.keys[i]); j != i; j = (j + 1) & s.mask {
			require.NotEqual(t, s.empty, s.keys[j],
				"hole at slot %d on the probe path of slot %d", j, i)
		}
	}
}

func checkMapProbeInvariants[K comparable, V comparable](t *testing.T, m *Map[K, V]) {
	t.Helper()

	require.Less(t, m.assigned, m.resizeAt)
	require.LessOrEqual(t, m.resizeAt, m.mask)

	for i := 0; i <= m.mask; i++ {
		if m.keys[i] == m.empty {
			continue
		}
		for j := m.slot(m.keys[i]); j != i; j = (j + 1) & m.mask {
			require.NotEqual(t, m.empty, m.keys[j],
				"hole at slot %d on the probe path of slot %d", j, i)
		}
	}
}

func TestBackwardShiftKeepsInvariants(t *testing.T) {
	s := NewSet[uint64]()

	live := make([]uint64, 0, 512)
	for round := 0; round < 5000; round++ {
		if len(live) == 0 || rand.Intn(3) != 0 {
			k := uint64(rand.Intn(1024))
			if s.Add(k) {
				live = append(live, k)
			}
		} else {
			i := rand.Intn(len(live))
			require.True(t, s.Remove(live[i]))
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		if round%251 == 0 {
			checkProbeInvariants(t, s)
		}
	}
	checkProbeInvariants(t, s)
}

func TestSentinelNeverOccupiesASlot(t *testing.T) {
	s := NewSet[uint64]()
	for k := uint64(0); k < 300; k++ {
		s.Add(k)
	}

	occupied := 0
	for i := 0; i <= s.mask; i++ {
		if s.keys[i] != s.empty {
			occupied++
			assert.NotEqual(t, s.empty, s.keys[i])
		}
	}
	assert.Equal(t, s.assigned, occupied)
	assert.True(t, s.hasEmptyKey, "key 0 lives off-band")
	assert.Equal(t, 300, s.Size())
}

func TestPredicateInterruption(t *testing.T) {
	m := NewSet[uint64]()
	for k := uint64(0); k <= 8; k++ {
		m.Add(k)
	}

	doomed := map[uint64]bool{2: true, 5: true, 9: true}
	assert.Panics(t, func() {
		m.RemoveFunc(func(k uint64) bool {
			if k == 7 {
				panic("predicate failure")
			}
			return doomed[k]
		})
	})

	assert.True(t, m.Contains(7), "the key the predicate failed on stays in")
	for k := uint64(0); k <= 8; k++ {
		if k == 2 || k == 5 {
			continue // may or may not have been removed before the panic
		}
		assert.True(t, m.Contains(k))
	}
	checkProbeInvariants(t, m)
}

func TestIteratorPoolRecycles(t *testing.T) {
	s := NewSet[uint64]()
	s.AddN(1, 2, 3)

	// a normally exhausted cursor returns to the pool
	it := s.Iterator()
	for it.Next() {
	}
	require.NotNil(t, s.pool)
	assert.Equal(t, 1, s.pool.Free())

	// borrowing drains the pool, exhaustion refills it
	it = s.Iterator()
	assert.Equal(t, 0, s.pool.Free())
	for it.Next() {
	}
	assert.Equal(t, 1, s.pool.Free())

	// an early exit leaks the cursor until it is released
	it = s.Iterator()
	require.True(t, it.Next())
	assert.Equal(t, 0, s.pool.Free())
	it.Release()
	assert.Equal(t, 1, s.pool.Free())

	// releasing twice is a no-op
	it.Release()
	assert.Equal(t, 1, s.pool.Free())
}

func TestIteratorPoolIsBounded(t *testing.T) {
	s := NewSet[uint64]()
	s.Add(1)

	cursors := make([]*SetIterator[uint64], 0, 10)
	for i := 0; i < 10; i++ {
		cursors = append(cursors, s.Iterator())
	}
	for _, it := range cursors {
		it.Release()
	}

	assert.LessOrEqual(t, s.pool.Free(), 4)
}

func TestMapShiftMovesValuesWithKeys(t *testing.T) {
	m := NewMap[uint64, uint64]()

	for round := 0; round < 3000; round++ {
		k := uint64(rand.Intn(512))
		if rand.Intn(3) != 0 {
			m.Put(k, k*10)
		} else {
			m.Remove(k)
		}

		if round%313 == 0 {
			checkMapProbeInvariants(t, m)
		}
	}

	m.Each(func(k, v uint64) bool {
		require.Equal(t, k*10, v, "value separated from its key")
		return false
	})
	checkMapProbeInvariants(t, m)
}

func TestGrowthReinsertsPlacedKey(t *testing.T) {
	// the insert that reaches the resize threshold is part of the rehash
	s, err := NewSetSized[uint64](7, 0.5)
	require.NoError(t, err)

	capacity := len(s.keys)
	var last uint64
	for k := uint64(1); ; k++ {
		s.Add(k)
		if len(s.keys) != capacity {
			last = k
			break
		}
	}

	require.True(t, s.Contains(last))
	checkProbeInvariants(t, s)
}
