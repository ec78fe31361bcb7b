// Package generic holds typed wrappers over sync primitives that would
// otherwise force interface{} assertions on every call site.
package generic

import "sync"

// Pool is a typed free list over sync.Pool. The zero value is not
// usable; construct with NewPool or NewHotPool.
type Pool[T any] struct {
	inner sync.Pool
}

// NewPool returns a pool that builds missing values with construct.
func NewPool[T any](construct func() T) *Pool[T] {
	return &Pool[T]{
		inner: sync.Pool{
			New: func() any {
				return construct()
			},
		},
	}
}

// NewHotPool returns a pool pre-filled with warm values, for hot paths
// that would otherwise pay construction cost on the first burst.
func NewHotPool[T any](construct func() T, warm int) *Pool[T] {
	p := NewPool[T](construct)
	for i := 0; i < warm; i++ {
		p.inner.Put(construct())
	}
	return p
}

// Get returns a pooled value, constructing one if the pool is empty.
// The value carries whatever state it had when it was Put; callers
// reset it themselves.
func (p *Pool[T]) Get() T {
	return p.inner.Get().(T)
}

// Put returns a value to the pool. The caller must not use it again.
func (p *Pool[T]) Put(value T) {
	p.inner.Put(value)
}
