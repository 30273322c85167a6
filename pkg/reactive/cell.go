package reactive

// Readable is a value that can be read inside a derivation.
type Readable[T any] interface {
	// Get returns the current value and records the read in the running derivation.
	Get() T
	// Peek returns the current value without recording a read.
	Peek() T
}

// Cell is a mutable holder of a value with change notification.
type Cell[T any] struct {
	node
	rt    *Runtime
	value T
}

// NewCell creates a cell holding initial.
func NewCell[T any](rt *Runtime, initial T) *Cell[T] {
	return &Cell[T]{rt: rt, value: initial}
}

// Get returns the current value and records the read.
func (c *Cell[T]) Get() T {
	c.rt.track(c)
	return c.value
}

// Peek returns the current value without recording a read.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores v and re-evaluates dependents. Writing an equal value still
// notifies them.
func (c *Cell[T]) Set(v T) {
	c.value = v
	c.rt.Batch(c.notify)
}

// Update replaces the value with fn applied to the current one.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Subscribe calls fn with the new value after every change.
// It returns a function that cancels the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	return subscribe[T](c.rt, c, fn)
}

func subscribe[T any](rt *Runtime, r Readable[T], fn func(T)) func() {
	first := true
	e := NewEffect(rt, func() {
		v := r.Get()
		if first {
			first = false
			return
		}
		rt.Untracked(func() { fn(v) })
	})
	return e.Dispose
}
