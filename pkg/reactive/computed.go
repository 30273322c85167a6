package reactive

import "fmt"

// Computed is a lazy derivation. It recomputes on Get after any dependency read
// during its last evaluation changed.
type Computed[T any] struct {
	node
	tracker
	fn        func() T
	value     T
	dirty     bool
	computing bool
}

// NewComputed creates a derivation over fn. fn is not called until the first Get.
func NewComputed[T any](rt *Runtime, fn func() T) *Computed[T] {
	c := &Computed[T]{fn: fn, dirty: true}
	c.tracker = tracker{rt: rt, self: c}
	return c
}

func (c *Computed[T]) markDirty() {
	if c.dirty {
		return
	}
	c.dirty = true
	c.notify()
}

// Get returns the up-to-date value and records the read.
func (c *Computed[T]) Get() T {
	c.rt.track(c)
	c.refresh()
	return c.value
}

// Peek returns the up-to-date value without recording a read.
func (c *Computed[T]) Peek() T {
	c.refresh()
	return c.value
}

func (c *Computed[T]) refresh() {
	if c.computing {
		panic(fmt.Errorf("%w: computed read itself", ErrCycle))
	}
	if !c.dirty {
		return
	}
	c.computing = true
	c.dirty = false
	defer func() { c.computing = false }()
	c.run(func() {
		c.value = c.fn()
	})
}

// Subscribe calls fn with the new value after every change of a dependency.
func (c *Computed[T]) Subscribe(fn func(T)) func() {
	return subscribe[T](c.rt, c, fn)
}
