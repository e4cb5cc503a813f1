// Package pool provides a mutex-guarded free list of resettable objects.
// Unlike sync.Pool, pooled objects are never dropped by the garbage collector,
// which keeps the number of per-frame objects in flight fixed once warmed up.
package pool

import "sync"

// Resettable is implemented by poolable objects.
type Resettable interface {
	// Reset clears the object for reuse.
	Reset()
}

// Pool is a free list of T. Get and Put may be called from different goroutines.
type Pool[T Resettable] struct {
	newFn func() T

	mutex     sync.Mutex
	free      []T
	allocated int
}

// New creates a pool allocating with newFn when empty.
func New[T Resettable](newFn func() T) *Pool[T] {
	return &Pool[T]{newFn: newFn}
}

// Get returns a pooled object, allocating a new one when the pool is empty.
func (p *Pool[T]) Get() T {
	p.mutex.Lock()
	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		p.mutex.Unlock()
		return obj
	}
	p.allocated++
	p.mutex.Unlock()
	return p.newFn()
}

// Put resets obj and stores it for reuse.
func (p *Pool[T]) Put(obj T) {
	obj.Reset()
	p.mutex.Lock()
	p.free = append(p.free, obj)
	p.mutex.Unlock()
}

// Free returns the number of objects waiting in the pool.
func (p *Pool[T]) Free() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.free)
}

// Allocated returns how many objects the pool has created.
func (p *Pool[T]) Allocated() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.allocated
}
