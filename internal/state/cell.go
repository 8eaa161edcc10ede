// Package state holds the client's shared reactive state: independently
// addressable cells whose observers run synchronously on every write.
package state

import "sync"

// Cell is a single observable value. Set stores the value and then calls
// every observer on the writer's goroutine, in subscription order, before
// returning.
type Cell[T any] struct {
	mu        sync.RWMutex
	value     T
	initial   T
	nextID    int
	observers []observer[T]
}

type observer[T any] struct {
	id int
	fn func(T)
}

// NewCell returns a cell holding initial; Reset returns it to that value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial, initial: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	obs := make([]observer[T], len(c.observers))
	copy(obs, c.observers)
	c.mu.Unlock()

	for _, o := range obs {
		o.fn(v)
	}
}

func (c *Cell[T]) Reset() {
	c.Set(c.initial)
}

// Subscribe registers fn for future writes. The returned func removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers = append(c.observers, observer[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}
