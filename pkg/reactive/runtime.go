package reactive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/textremind/internal/logging"
	"github.com/aretw0/textremind/pkg/domain"
)

// maxFlushRuns bounds the number of effect runs in a single flush. Crossing it
// means effects keep re-triggering each other.
const maxFlushRuns = 10000

// Runtime is the single logical thread of a reactive graph.
// Only the queue is safe for concurrent use (Post, Go, Do); everything else must
// run on the goroutine that drives the runtime.
type Runtime struct {
	mu       sync.Mutex
	queue    []func()
	inflight int
	wake     chan struct{}

	frames   []*frame
	batch    int
	pending  []*Effect
	flushing bool

	ctx    context.Context
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option defines a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithLogger sets a custom structured logger for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(rt *Runtime) {
		rt.hooks = rt.hooks.Merge(hooks)
	}
}

// WithContext sets the context handed to off-loop tasks. It is never canceled
// by the runtime itself.
func WithContext(ctx context.Context) Option {
	return func(rt *Runtime) {
		rt.ctx = ctx
	}
}

// WithClock overrides the clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(rt *Runtime) {
		rt.now = now
	}
}

// NewRuntime creates an idle runtime.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		wake:   make(chan struct{}, 1),
		ctx:    context.Background(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Now returns the runtime clock reading.
func (rt *Runtime) Now() time.Time {
	return rt.now()
}

// AddHooks merges hooks into the ones already registered. Loop only.
func (rt *Runtime) AddHooks(hooks domain.LifecycleHooks) {
	rt.hooks = rt.hooks.Merge(hooks)
}

// Hooks returns the registered lifecycle hooks.
func (rt *Runtime) Hooks() domain.LifecycleHooks {
	return rt.hooks
}

// -- Tracking --

func (rt *Runtime) push(f *frame) {
	rt.frames = append(rt.frames, f)
}

func (rt *Runtime) pop() {
	rt.frames = rt.frames[:len(rt.frames)-1]
}

// track records a read of s in the innermost frame, if any.
func (rt *Runtime) track(s source) {
	if len(rt.frames) == 0 {
		return
	}
	rt.frames[len(rt.frames)-1].record(s)
}

// Untracked runs fn without recording any read into the running derivation.
func (rt *Runtime) Untracked(fn func()) {
	rt.push(&frame{discard: true})
	defer rt.pop()
	fn()
}

// Tracking reports whether a derivation is currently being evaluated.
func (rt *Runtime) Tracking() bool {
	return len(rt.frames) > 0 && !rt.frames[len(rt.frames)-1].discard
}

// -- Batching --

// Batch groups writes: effects triggered inside fn run once, after fn returns.
func (rt *Runtime) Batch(fn func()) {
	rt.batch++
	defer func() {
		rt.batch--
		if rt.batch == 0 {
			rt.flush()
		}
	}()
	fn()
}

func (rt *Runtime) schedule(e *Effect) {
	rt.pending = append(rt.pending, e)
}

func (rt *Runtime) flush() {
	if rt.flushing {
		return
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	runs := 0
	for len(rt.pending) > 0 {
		e := rt.pending[0]
		rt.pending = rt.pending[1:]
		e.queued = false
		if e.disposed {
			continue
		}
		runs++
		if runs > maxFlushRuns {
			rt.logger.Error("reactive: effects keep re-triggering, dropping pending runs",
				"pending", len(rt.pending)+1)
			for _, p := range rt.pending {
				p.queued = false
			}
			rt.pending = nil
			return
		}
		e.run()
	}
}

// -- Event loop --

// Post queues fn to run on the loop. Safe for concurrent use.
func (rt *Runtime) Post(fn func()) {
	rt.enqueue(fn, false)
}

func (rt *Runtime) enqueue(fn func(), completesTask bool) {
	rt.mu.Lock()
	rt.queue = append(rt.queue, fn)
	if completesTask {
		rt.inflight--
	}
	rt.mu.Unlock()

	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

// Go runs work on a new goroutine and applies the function it returns on the
// loop. The runtime counts the task as in flight until its completion is queued.
func (rt *Runtime) Go(work func(ctx context.Context) func()) {
	rt.mu.Lock()
	rt.inflight++
	rt.mu.Unlock()

	go func() {
		var done func()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%w: %v", ErrPanicked, r)
				done = func() { rt.logger.Error("reactive: task failed", "error", err) }
			}
			rt.enqueue(done, true)
		}()
		done = work(rt.ctx)
	}()
}

// Drain runs every queued function on the calling goroutine, including the ones
// queued while draining, and returns how many ran.
func (rt *Runtime) Drain() int {
	total := 0
	for {
		rt.mu.Lock()
		batch := rt.queue
		rt.queue = nil
		rt.mu.Unlock()

		if len(batch) == 0 {
			return total
		}
		for _, fn := range batch {
			if fn == nil {
				continue
			}
			rt.Batch(fn)
			total++
		}
	}
}

// RunOnce blocks until at least one queued function is available, then drains.
func (rt *Runtime) RunOnce(ctx context.Context) (int, error) {
	for {
		if n := rt.Drain(); n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-rt.wake:
		}
	}
}

// Settle drains until no task is in flight and the queue is empty.
func (rt *Runtime) Settle(ctx context.Context) error {
	for {
		rt.Drain()

		rt.mu.Lock()
		idle := len(rt.queue) == 0 && rt.inflight == 0
		rt.mu.Unlock()
		if idle {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.wake:
		}
	}
}

// InFlight returns the number of tasks started with Go whose completion has not
// been queued yet.
func (rt *Runtime) InFlight() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.inflight
}

// Run drives the loop until ctx is done and returns ctx.Err().
func (rt *Runtime) Run(ctx context.Context) error {
	for {
		rt.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rt.wake:
		}
	}
}

// Do runs fn on the loop and waits for it. A goroutine must be driving the
// runtime (Run), otherwise Do blocks until ctx is done.
func (rt *Runtime) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	rt.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -- Events --

func (rt *Runtime) emitEvaluation(kind domain.EventType, e *domain.EvaluationEvent) {
	e.Timestamp = rt.now()
	e.Type = kind
	var hook func(context.Context, *domain.EvaluationEvent)
	if kind == domain.EventEvaluationStart {
		hook = rt.hooks.OnEvaluationStart
	} else {
		hook = rt.hooks.OnEvaluationSettle
	}
	if hook != nil {
		hook(rt.ctx, e)
	}
}

// EmitAction fires the action hooks. Loop only.
func (rt *Runtime) EmitAction(kind domain.EventType, e *domain.ActionEvent) {
	e.Timestamp = rt.now()
	e.Type = kind
	hook := rt.hooks.OnActionFinish
	if kind == domain.EventActionStart {
		hook = rt.hooks.OnActionStart
	}
	if hook != nil {
		hook(rt.ctx, e)
	}
}
