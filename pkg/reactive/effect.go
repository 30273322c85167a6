package reactive

// Effect is an eager derivation: it runs once on creation and again, once per
// flush, whenever a dependency read on its last run changes.
type Effect struct {
	tracker
	fn       func()
	queued   bool
	disposed bool
}

// NewEffect creates and immediately runs an effect.
func NewEffect(rt *Runtime, fn func()) *Effect {
	e := &Effect{fn: fn}
	e.tracker = tracker{rt: rt, self: e}
	rt.Batch(e.run)
	return e
}

func (e *Effect) markDirty() {
	if e.queued || e.disposed {
		return
	}
	e.queued = true
	e.rt.schedule(e)
}

func (e *Effect) run() {
	if e.disposed {
		return
	}
	e.tracker.run(e.fn)
}

// Dispose detaches the effect from its dependencies. It never runs again.
func (e *Effect) Dispose() {
	e.disposed = true
	e.dispose()
}
