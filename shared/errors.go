package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFactor signals a load factor outside the half-open range (0,1].
	ErrLoadFactor = errors.New("load factor out of range (0,1]")

	// ErrNilStrategy signals a nil hashing strategy where one is required.
	ErrNilStrategy = errors.New("nil hashing strategy")

	// ErrNilHasher signals a nil hash function where one is required.
	ErrNilHasher = errors.New("nil hash function")
)

// CheckLoadFactor validates a load factor at construction time.
func CheckLoadFactor(lf float64) error {
	if lf <= 0.0 || lf > 1.0 {
		return fmt.Errorf("%f: %w", lf, ErrLoadFactor)
	}
	return nil
}
