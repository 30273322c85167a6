package textremind

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/textremind/internal/logging"
	httpAdapter "github.com/aretw0/textremind/pkg/adapters/http"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/form"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/aretw0/textremind/pkg/timeparse"
)

// App bundles the runtime, the form and its actions.
type App struct {
	Runtime *reactive.Runtime
	Form    *form.Form
	Actions *form.Dispatcher

	logger *slog.Logger
}

type settings struct {
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	policy    form.Policy
	transport ports.Transport
	timeout   time.Duration
	now       func() time.Time
	parser    *timeparse.Parser
	ctx       context.Context
}

// Option defines a functional option for configuring the App.
type Option func(*settings)

// WithLogger sets a custom structured logger for the runtime, form and HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithPolicy selects the verification path the ready gate accepts.
func WithPolicy(p form.Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithTransport replaces the HTTP client. The base URL passed to New is then ignored.
func WithTransport(t ports.Transport) Option {
	return func(s *settings) {
		s.transport = t
	}
}

// WithTimeout bounds every HTTP request made by the default transport.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithClock overrides the clock used to validate delivery times.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithParser overrides the delivery time parser.
func WithParser(p *timeparse.Parser) Option {
	return func(s *settings) {
		s.parser = p
	}
}

// WithContext sets the context handed to backend requests.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		s.ctx = ctx
	}
}

// New builds a form talking to the backend at baseURL.
func New(baseURL string, opts ...Option) *App {
	s := &settings{
		logger: logging.NewNop(),
		policy: form.CodePath,
		now:    time.Now,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.transport == nil {
		clientOpts := []httpAdapter.ClientOption{httpAdapter.WithClientLogger(s.logger)}
		if s.timeout > 0 {
			clientOpts = append(clientOpts, httpAdapter.WithTimeout(s.timeout))
		}
		s.transport = httpAdapter.NewClient(baseURL, clientOpts...)
	}

	rt := reactive.NewRuntime(
		reactive.WithLogger(s.logger),
		reactive.WithLifecycleHooks(s.hooks),
		reactive.WithClock(s.now),
		reactive.WithContext(s.ctx),
	)

	formOpts := []form.Option{form.WithPolicy(s.policy)}
	if s.parser != nil {
		formOpts = append(formOpts, form.WithParser(s.parser))
	}
	f := form.New(rt, s.transport, formOpts...)

	return &App{
		Runtime: rt,
		Form:    f,
		Actions: form.NewDispatcher(f),
		logger:  s.logger,
	}
}

// Settle processes input and backend answers until nothing is left in flight.
// It must run on the goroutine that owns the form.
func (a *App) Settle(ctx context.Context) error {
	return a.Runtime.Settle(ctx)
}

// Run drives the runtime until ctx is done. Use Do to touch the form meanwhile.
func (a *App) Run(ctx context.Context) error {
	return a.Runtime.Run(ctx)
}

// Do runs fn on the loop started by Run and waits for it.
func (a *App) Do(ctx context.Context, fn func(f *form.Form, actions *form.Dispatcher)) error {
	return a.Runtime.Do(ctx, func() { fn(a.Form, a.Actions) })
}

// Snapshot returns the workflow state. It must run on the goroutine that owns the form.
func (a *App) Snapshot() form.State {
	return a.Form.State()
}

// Close disposes the form. Answers still in flight are dropped.
func (a *App) Close() {
	a.Form.Dispose()
	a.logger.Debug("form closed")
}
