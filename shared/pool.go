package shared

// PoolSize is the hard upper bound of cursors a container keeps
// around. Cursors leaked past the bound are simply dropped for the
// garbage collector, so a leak can never grow the pool.
const PoolSize = 4

// Pool is a small free list that recycles cursor objects across
// successive enumerations of one container. It is owned by its
// container and shares the container's single-threaded contract.
type Pool[T any] struct {
	alloc func() *T
	free  []*T
}

// NewPool creates a pool that calls 'alloc' when the free list is empty.
func NewPool[T any](alloc func() *T) *Pool[T] {
	return &Pool[T]{alloc: alloc}
}

// Borrow hands out a recycled cursor, or a fresh one if none is free.
func (p *Pool[T]) Borrow() *T {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return c
	}
	return p.alloc()
}

// Release returns a cursor to the free list. Past PoolSize the cursor
// is dropped.
func (p *Pool[T]) Release(c *T) {
	if len(p.free) < PoolSize {
		p.free = append(p.free, c)
	}
}

// Free reports the number of recycled cursors currently available.
func (p *Pool[T]) Free() int {
	return len(p.free)
}
