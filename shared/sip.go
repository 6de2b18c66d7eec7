package shared

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/dchest/siphash"
)

// SipStringHasher returns a keyed SipHash-2-4 hasher for string keys.
// Unlike the default xxhash string hasher, the output cannot be
// predicted without the key, which blocks precomputed collision sets
// even before the per-container perturbation is mixed in.
func SipStringHasher(k0, k1 uint64) HashFn[string] {
	return func(s string) uint64 {
		return siphash.Hash(k0, k1, []byte(s))
	}
}

// RandomSipStringHasher returns a SipHash string hasher keyed from
// crypto/rand.
func RandomSipStringHasher() HashFn[string] {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("hppcrt: reading random sip keys: " + err.Error())
	}
	k0 := binary.LittleEndian.Uint64(buf[:8])
	k1 := binary.LittleEndian.Uint64(buf[8:])
	return SipStringHasher(k0, k1)
}
