package shared

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// HashFn is a function that returns the raw hash of 't'. The container
// mixes the raw hash with its perturbation seed before masking, so an
// identity function is a valid hasher for small integer types.
type HashFn[T any] func(t T) uint64

// Mix scrambles a raw hash together with a per-container perturbation
// seed. The output is well distributed across the low bits, so masking
// with capacity-1 yields near-uniform slot selection.
func Mix(hash, seed uint64) uint64 {
	return mix64(hash ^ seed)
}

// mix64 implements MurmurHash3's 64-bit finalizer.
func mix64(key uint64) uint64 {
	key ^= key >> 33
	key *= 0xff51afd7ed558ccd
	key ^= key >> 33
	key *= 0xc4ceb9fe1a85ec53
	key ^= key >> 33
	return key
}

// GetHasher returns a hasher for the golang default types.
func GetHasher[Key any]() HashFn[Key] {
	var key Key
	kind := reflect.ValueOf(&key).Elem().Type().Kind()

	switch kind {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		switch unsafe.Sizeof(key) {
		case 2:
			return *(*func(Key) uint64)(unsafe.Pointer(&hashWord))
		case 4:
			return *(*func(Key) uint64)(unsafe.Pointer(&hashDword))
		case 8:
			return *(*func(Key) uint64)(unsafe.Pointer(&hashQword))

		default:
			panic("unsupported integer byte size")
		}

	case reflect.Int8, reflect.Uint8:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashByte))
	case reflect.Int16, reflect.Uint16:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashWord))
	case reflect.Int32, reflect.Uint32:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashDword))
	case reflect.Int64, reflect.Uint64:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashQword))
	case reflect.Float32:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashFloat32))
	case reflect.Float64:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashFloat64))
	case reflect.String:
		return *(*func(Key) uint64)(unsafe.Pointer(&hashString))

	default:
		panic(fmt.Sprintf("unsupported key type %T of kind %v", key, kind))
	}
}

// The integer hashers return the identity. The containers scramble
// every raw hash through Mix, so pre-scrambling small integers here
// would only cost an extra multiply per probe.
var hashByte = func(in uint8) uint64 {
	return uint64(in)
}

var hashWord = func(in uint16) uint64 {
	return uint64(in)
}

var hashDword = func(in uint32) uint64 {
	return uint64(in)
}

var hashQword = func(in uint64) uint64 {
	return in
}

var hashFloat32 = func(in float32) uint64 {
	p := unsafe.Pointer(&in)
	return uint64(*(*uint32)(p))
}

var hashFloat64 = func(in float64) uint64 {
	p := unsafe.Pointer(&in)
	return *(*uint64)(p)
}

var hashString = func(in string) uint64 {
	return xxhash.Sum64String(in)
}
