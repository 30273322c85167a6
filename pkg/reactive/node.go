package reactive

import "slices"

// source is anything a derivation can read and subscribe to.
type source interface {
	addObserver(o subscriber)
	removeObserver(o subscriber)
}

// subscriber is anything that re-evaluates when one of its sources changes.
type subscriber interface {
	markDirty()
}

// node holds the observer list of a source.
type node struct {
	observers []subscriber
}

func (n *node) addObserver(o subscriber) {
	n.observers = appendUnique(n.observers, o)
}

func (n *node) removeObserver(o subscriber) {
	n.observers = removeElement(n.observers, o)
}

// notify marks every current observer dirty. The list is cloned because
// observers re-subscribe while being notified.
func (n *node) notify() {
	for _, o := range slices.Clone(n.observers) {
		o.markDirty()
	}
}

// frame collects the sources read while a derivation runs.
type frame struct {
	self    subscriber
	sources []source
	seen    map[source]struct{}
	discard bool
}

func (f *frame) record(s source) {
	if f.discard {
		return
	}
	if _, ok := f.seen[s]; ok {
		return
	}
	f.seen[s] = struct{}{}
	f.sources = append(f.sources, s)
	s.addObserver(f.self)
}

// tracker owns the dependency set captured on the last run of a derivation.
type tracker struct {
	rt      *Runtime
	self    subscriber
	sources []source
	stopped bool
}

// run executes fn inside a fresh tracking frame. A source is subscribed as soon
// as it is read, so a write to it later in the same run still marks the
// derivation dirty. Sources of the previous run that were not read again are
// released once fn returns.
func (t *tracker) run(fn func()) {
	f := &frame{self: t.self, seen: make(map[source]struct{})}
	t.rt.push(f)
	defer func() {
		t.rt.pop()
		for _, s := range t.sources {
			if _, ok := f.seen[s]; !ok {
				s.removeObserver(t.self)
			}
		}
		t.sources = f.sources
		if t.stopped {
			t.dispose()
		}
	}()
	fn()
}

func (t *tracker) dispose() {
	t.stopped = true
	for _, s := range t.sources {
		s.removeObserver(t.self)
	}
	t.sources = nil
}

// Dependencies returns the number of sources captured on the last run.
func (t *tracker) Dependencies() int {
	return len(t.sources)
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
