package robin

import "golang.org/x/exp/constraints"

// PutOrAdd inserts `putValue` if the key is absent, otherwise adds
// `incrValue` to the stored value. Returns the value now stored.
func PutOrAdd[K comparable, V constraints.Integer | constraints.Float](m *Map[K, V], key K, putValue, incrValue V) V {
	if v, ok := m.Get(key); ok {
		v += incrValue
		m.Put(key, v)
		return v
	}
	m.Put(key, putValue)
	return putValue
}

// AddTo adds `incrValue` to the value stored for the key, inserting it
// if the key is absent. Returns the value now stored.
func AddTo[K comparable, V constraints.Integer | constraints.Float](m *Map[K, V], key K, incrValue V) V {
	return PutOrAdd(m, key, incrValue, incrValue)
}
