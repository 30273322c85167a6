package reactive

import (
	"context"
	"fmt"

	"github.com/aretw0/textremind/pkg/domain"
)

// Status is the state of an async result.
type Status int

const (
	// Idle means no evaluation has been started for the current input.
	Idle Status = iota
	// Pending means an evaluation for the current input is in flight.
	Pending
	// Done means the latest evaluation succeeded.
	Done
	// Failed means the latest evaluation returned an error.
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the observable outcome of an Async cell.
type Result[R any] struct {
	Status     Status
	Value      R
	Err        error
	Key        string
	Generation uint64
}

// Task is the off-loop half of an async evaluation.
type Task[R any] func(ctx context.Context) (R, error)

// Dependency is an input an Async cell waits on.
type Dependency interface {
	// Satisfied reports whether the input currently holds a non-empty, valid value.
	Satisfied() bool
}

// AsyncConfig declares an Async cell.
type AsyncConfig[R any] struct {
	// Name identifies the cell in events and logs.
	Name string
	// Dependencies must all be satisfied before an evaluation starts.
	Dependencies []Dependency
	// Gate is an optional extra precondition, combined with Dependencies.
	Gate func() bool
	// Key returns the identity of the inputs. A new evaluation starts only when
	// the key differs from the one of the last started evaluation.
	Key func() string
	// Evaluate reads the inputs on the loop and returns the task to run off-loop.
	Evaluate func() Task[R]
}

// Async is a derivation whose value comes from an off-loop task.
//
// Every started evaluation gets a new generation number; a completion is applied
// only if its generation is still the latest, so a slow response can never
// overwrite the answer to a newer question. While the gate is closed the last
// result is kept, unless it was produced for a different key: then the result is
// reset to Idle and any in-flight evaluation is invalidated.
type Async[R any] struct {
	rt         *Runtime
	cfg        AsyncConfig[R]
	result     *Cell[Result[R]]
	generation uint64
	lastKey    string
	started    bool
	effect     *Effect
}

// NewAsync registers an async cell and runs its first trigger immediately.
func NewAsync[R any](rt *Runtime, cfg AsyncConfig[R]) *Async[R] {
	if cfg.Key == nil {
		cfg.Key = func() string { return "" }
	}
	a := &Async[R]{
		rt:     rt,
		cfg:    cfg,
		result: NewCell(rt, Result[R]{}),
	}
	a.effect = NewEffect(rt, a.trigger)
	return a
}

// Name returns the configured name.
func (a *Async[R]) Name() string {
	return a.cfg.Name
}

// Get returns the current result and records the read.
func (a *Async[R]) Get() Result[R] {
	return a.result.Get()
}

// Peek returns the current result without recording a read.
func (a *Async[R]) Peek() Result[R] {
	return a.result.Peek()
}

// Value returns the value of a Done result, the zero value otherwise.
func (a *Async[R]) Value() R {
	res := a.result.Get()
	if res.Status != Done {
		var zero R
		return zero
	}
	return res.Value
}

// Status returns the status of the current result.
func (a *Async[R]) Status() Status {
	return a.result.Get().Status
}

// Generation returns the number of evaluations started so far, including
// invalidations.
func (a *Async[R]) Generation() uint64 {
	return a.generation
}

// Subscribe calls fn with the new result after every change.
func (a *Async[R]) Subscribe(fn func(Result[R])) func() {
	return a.result.Subscribe(fn)
}

// Refresh starts a new evaluation for the current inputs if the gate is open,
// even when the key did not change.
func (a *Async[R]) Refresh() {
	a.rt.Batch(func() {
		a.rt.Untracked(func() {
			if a.open() {
				a.start(a.cfg.Key())
			}
		})
	})
}

// Dispose stops reacting to dependency changes. In-flight completions are discarded.
func (a *Async[R]) Dispose() {
	a.effect.Dispose()
	a.generation++
}

func (a *Async[R]) open() bool {
	ok := true
	for _, dep := range a.cfg.Dependencies {
		if !dep.Satisfied() {
			ok = false
		}
	}
	if a.cfg.Gate != nil && !a.cfg.Gate() {
		ok = false
	}
	return ok
}

func (a *Async[R]) trigger() {
	key := a.cfg.Key()
	if !a.open() {
		cur := a.result.Peek()
		if cur.Status != Idle && cur.Key != key {
			a.generation++
			a.started = false
			a.lastKey = ""
			a.result.Set(Result[R]{Status: Idle, Key: key, Generation: a.generation})
		}
		return
	}
	if a.started && key == a.lastKey {
		return
	}
	a.start(key)
}

func (a *Async[R]) start(key string) {
	a.generation++
	g := a.generation
	a.started = true
	a.lastKey = key

	task := a.cfg.Evaluate()

	cur := a.result.Peek()
	if cur.Key != key || cur.Status == Idle {
		a.result.Set(Result[R]{Status: Pending, Key: key, Generation: g})
	}

	a.rt.logger.Debug("async evaluation started", "cell", a.cfg.Name, "generation", g)
	a.rt.emitEvaluation(domain.EventEvaluationStart, &domain.EvaluationEvent{
		Cell: a.cfg.Name, Generation: g, Key: key,
	})

	a.rt.Go(func(ctx context.Context) func() {
		v, err := a.call(ctx, task)
		return func() { a.settle(g, key, v, err) }
	})
}

// call runs task and reports a panic as an ErrPanicked failure.
func (a *Async[R]) call(ctx context.Context, task Task[R]) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			v, err = zero, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return task(ctx)
}

func (a *Async[R]) settle(g uint64, key string, v R, err error) {
	ev := &domain.EvaluationEvent{Cell: a.cfg.Name, Generation: g, Key: key, Err: err}

	if g != a.generation {
		a.rt.logger.Debug("async evaluation superseded", "cell", a.cfg.Name,
			"generation", g, "current", a.generation)
		a.rt.emitEvaluation(domain.EventEvaluationDiscarded, ev)
		return
	}

	if err != nil {
		a.rt.logger.Warn("async evaluation failed", "cell", a.cfg.Name, "generation", g, "error", err)
		a.result.Set(Result[R]{Status: Failed, Err: err, Key: key, Generation: g})
		a.rt.emitEvaluation(domain.EventEvaluationFailed, ev)
		return
	}

	a.result.Set(Result[R]{Status: Done, Value: v, Key: key, Generation: g})
	a.rt.emitEvaluation(domain.EventEvaluationApplied, ev)
}
