package form

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/aretw0/textremind/pkg/reactive"
	"github.com/aretw0/textremind/pkg/timeparse"
	"github.com/aretw0/textremind/pkg/validation"
)

// Field names, in the order errors are reported.
const (
	FieldMessage      = "message"
	FieldNumber       = "number"
	FieldDeliveryTime = "delivery_time"
	FieldPassword     = "password"
	FieldCode         = "code"
)

// Names of the async checks, as reported in events and metrics.
const (
	CheckNumberVerified  = "number_verified"
	CheckCodeMatches     = "code_matches"
	CheckPasswordMatches = "password_matches"
)

// Messages of the rules that differ from the validation defaults.
const (
	MessageTooLong = "Your message is too long, it must be no more than 160 characters."
	InvalidTime    = "Specified time is not valid or is in the past. Please try a different format."
)

// Form is the reactive state of the scheduling workflow.
type Form struct {
	rt        *reactive.Runtime
	transport ports.Transport
	parser    *timeparse.Parser
	policy    Policy

	Message      *Field
	Number       *Field
	DeliveryTime *Field
	Password     *Field
	Code         *Field

	// NumberVerified reports whether the backend already knows the number.
	NumberVerified *reactive.Async[bool]
	// CodeMatches reports whether the entered code is the one texted to the number.
	CodeMatches *reactive.Async[bool]
	// PasswordMatches reports whether the entered password is the number's
	// password. It only runs once the number is verified.
	PasswordMatches *reactive.Async[bool]

	codeSent      *reactive.Cell[bool]
	passwordSet   *reactive.Cell[bool]
	messageSent   *reactive.Cell[bool]
	scheduleError *reactive.Cell[string]
	notice        *reactive.Cell[string]

	digits      *reactive.Computed[string]
	displayTime *reactive.Computed[string]
	errors      *reactive.Computed[[]domain.FieldError]
	ready       *reactive.Computed[bool]

	unsubscribe []func()
}

// Option configures a Form.
type Option func(*Form)

// WithPolicy selects the verification policy. CodePath is the default.
func WithPolicy(p Policy) Option {
	return func(f *Form) {
		f.policy = p
	}
}

// WithParser sets the delivery time parser.
func WithParser(p *timeparse.Parser) Option {
	return func(f *Form) {
		f.parser = p
	}
}

// New builds a form whose checks go through transport.
func New(rt *reactive.Runtime, transport ports.Transport, opts ...Option) *Form {
	f := &Form{
		rt:        rt,
		transport: transport,
		policy:    CodePath,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.parser == nil {
		f.parser = timeparse.New()
	}

	f.Message = NewField(rt, FieldMessage,
		validation.Required(),
		validation.MaxLength(domain.MaxMessageLength).WithMessage(MessageTooLong),
	)
	f.Number = NewField(rt, FieldNumber,
		validation.Required(),
		validation.MinLength(10),
		validation.MaxLength(14),
	)
	f.DeliveryTime = NewField(rt, FieldDeliveryTime,
		validation.Required(),
		validation.Custom("future_time", InvalidTime, func(v string) bool {
			return f.parser.Valid(v, rt.Now())
		}),
	)
	f.Password = NewField(rt, FieldPassword,
		validation.MinLength(10),
		validation.MaxLength(128),
	)
	f.Code = NewField(rt, FieldCode,
		validation.MinLength(6),
		validation.MaxLength(6),
	)

	f.codeSent = reactive.NewCell(rt, false)
	f.passwordSet = reactive.NewCell(rt, false)
	f.messageSent = reactive.NewCell(rt, false)
	f.scheduleError = reactive.NewCell(rt, "")
	f.notice = reactive.NewCell(rt, "")

	f.digits = reactive.NewComputed(rt, func() string {
		return digitsOf(f.Number.Get())
	})
	f.displayTime = reactive.NewComputed(rt, func() string {
		t, err := f.parser.Future(f.DeliveryTime.Get(), rt.Now())
		if err != nil {
			return ""
		}
		return t.Format(timeparse.DisplayLayout)
	})

	f.NumberVerified = reactive.NewAsync(rt, reactive.AsyncConfig[bool]{
		Name:         CheckNumberVerified,
		Dependencies: []reactive.Dependency{f.Number},
		Key:          f.digits.Get,
		Evaluate: func() reactive.Task[bool] {
			payload := map[string]any{"number": f.digits.Get()}
			return func(ctx context.Context) (bool, error) {
				var out checkResponse
				err := f.call(ctx, domain.EndpointCheck, payload, &out)
				return out.Verified, err
			}
		},
	})
	f.CodeMatches = reactive.NewAsync(rt, reactive.AsyncConfig[bool]{
		Name:         CheckCodeMatches,
		Dependencies: []reactive.Dependency{f.Number, f.Code},
		Key: func() string {
			return f.digits.Get() + "|" + f.Code.Get()
		},
		Evaluate: func() reactive.Task[bool] {
			payload := map[string]any{"number": f.digits.Get(), "code": f.Code.Get()}
			return func(ctx context.Context) (bool, error) {
				var out verificationResponse
				err := f.call(ctx, domain.EndpointCheckVerification, payload, &out)
				return out.Valid, err
			}
		},
	})
	f.PasswordMatches = reactive.NewAsync(rt, reactive.AsyncConfig[bool]{
		Name:         CheckPasswordMatches,
		Dependencies: []reactive.Dependency{f.Number, f.Password},
		Gate:         f.NumberVerified.Value,
		Key: func() string {
			return f.digits.Get() + "|" + f.Password.Get()
		},
		Evaluate: func() reactive.Task[bool] {
			payload := map[string]any{"number": f.digits.Get(), "password": f.Password.Get()}
			return func(ctx context.Context) (bool, error) {
				var out passwordResponse
				err := f.call(ctx, domain.EndpointCheckPassword, payload, &out)
				return out.Matches, err
			}
		},
	})

	f.errors = reactive.NewComputed(rt, f.collectErrors)
	f.ready = reactive.NewComputed(rt, func() bool {
		if len(f.errors.Get()) > 0 {
			return false
		}
		return f.policy.allows(f.NumberVerified.Value(), f.CodeMatches.Value(), f.PasswordMatches.Value())
	})

	f.surfaceFailures(f.NumberVerified)
	f.surfaceFailures(f.CodeMatches)
	f.surfaceFailures(f.PasswordMatches)

	return f
}

func (f *Form) call(ctx context.Context, endpoint string, payload map[string]any, out any) error {
	resp, err := f.transport.Send(ctx, endpoint, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return decodeResponse(resp, out)
}

// surfaceFailures copies the error of a failed check into the notice.
func (f *Form) surfaceFailures(a *reactive.Async[bool]) {
	unsub := a.Subscribe(func(r reactive.Result[bool]) {
		if r.Status == reactive.Failed {
			f.notice.Set(failureMessage(a.Name(), r.Err))
		}
	})
	f.unsubscribe = append(f.unsubscribe, unsub)
}

func failureMessage(check string, err error) string {
	msg := domain.MessageOf(err)
	switch check {
	case CheckNumberVerified:
		return "Could not check whether this number is verified: " + msg
	case CheckCodeMatches:
		return "Could not check the verification code: " + msg
	case CheckPasswordMatches:
		return "Could not check the password: " + msg
	default:
		return msg
	}
}

func (f *Form) collectErrors() []domain.FieldError {
	var out []domain.FieldError
	for _, field := range f.Fields() {
		for _, msg := range field.Errors() {
			out = append(out, domain.FieldError{Field: field.Name(), Message: msg})
		}
	}

	checks := []struct {
		field string
		cell  *reactive.Async[bool]
	}{
		{FieldNumber, f.NumberVerified},
		{FieldCode, f.CodeMatches},
		{FieldPassword, f.PasswordMatches},
	}
	for _, c := range checks {
		if res := c.cell.Get(); res.Status == reactive.Failed {
			out = append(out, domain.FieldError{Field: c.field, Message: failureMessage(c.cell.Name(), res.Err)})
		}
	}
	return out
}

// Runtime returns the runtime the form lives on.
func (f *Form) Runtime() *reactive.Runtime { return f.rt }

// Policy returns the verification policy.
func (f *Form) Policy() Policy { return f.policy }

// Fields returns the fields in declaration order.
func (f *Form) Fields() []*Field {
	return []*Field{f.Message, f.Number, f.DeliveryTime, f.Password, f.Code}
}

// Digits returns the number input with everything but digits removed.
func (f *Form) Digits() string { return f.digits.Get() }

// DisplayTime returns the parsed delivery time formatted for display, or ""
// when it does not parse.
func (f *Form) DisplayTime() string { return f.displayTime.Get() }

// Errors returns every sync validation error in field order, followed by one
// entry per failed check.
func (f *Form) Errors() []domain.FieldError { return f.errors.Get() }

// IsClear reports whether Errors is empty.
func (f *Form) IsClear() bool { return len(f.errors.Get()) == 0 }

// Ready reports whether the form may be submitted.
func (f *Form) Ready() bool { return f.ready.Get() }

// SubscribeReady calls fn whenever Ready may have changed.
func (f *Form) SubscribeReady(fn func(bool)) func() { return f.ready.Subscribe(fn) }

// SubscribeErrors calls fn whenever Errors may have changed.
func (f *Form) SubscribeErrors(fn func([]domain.FieldError)) func() { return f.errors.Subscribe(fn) }

// CodeSent reports whether the last verification request succeeded.
func (f *Form) CodeSent() bool { return f.codeSent.Get() }

// PasswordSet reports whether the last set-password request succeeded.
func (f *Form) PasswordSet() bool { return f.passwordSet.Get() }

// MessageSent reports whether the last schedule request succeeded.
func (f *Form) MessageSent() bool { return f.messageSent.Get() }

// ScheduleError returns the server message of the last failed schedule request.
func (f *Form) ScheduleError() string { return f.scheduleError.Get() }

// Notice returns the last surfaced failure, if any.
func (f *Form) Notice() string { return f.notice.Get() }

// ClearNotice dismisses the current notice.
func (f *Form) ClearNotice() { f.notice.Set("") }

// SubscribeNotice calls fn with every new notice.
func (f *Form) SubscribeNotice(fn func(string)) func() { return f.notice.Subscribe(fn) }

// State is a point-in-time copy of the workflow flags.
type State struct {
	NumberVerified  bool
	CodeSent        bool
	CodeMatches     bool
	PasswordMatches bool
	PasswordSet     bool
	MessageSent     bool
	ScheduleError   string
	Notice          string
	Pending         bool
	Ready           bool
	Errors          []domain.FieldError
}

// State returns a snapshot of the workflow.
func (f *Form) State() State {
	return State{
		NumberVerified:  f.NumberVerified.Value(),
		CodeSent:        f.codeSent.Peek(),
		CodeMatches:     f.CodeMatches.Value(),
		PasswordMatches: f.PasswordMatches.Value(),
		PasswordSet:     f.passwordSet.Peek(),
		MessageSent:     f.messageSent.Peek(),
		ScheduleError:   f.scheduleError.Peek(),
		Notice:          f.notice.Peek(),
		Pending: f.NumberVerified.Peek().Status == reactive.Pending ||
			f.CodeMatches.Peek().Status == reactive.Pending ||
			f.PasswordMatches.Peek().Status == reactive.Pending,
		Ready:  f.ready.Peek(),
		Errors: f.errors.Peek(),
	}
}

// Dispose stops the checks and subscriptions. In-flight results are discarded.
func (f *Form) Dispose() {
	for _, unsub := range f.unsubscribe {
		unsub()
	}
	f.unsubscribe = nil
	f.NumberVerified.Dispose()
	f.CodeMatches.Dispose()
	f.PasswordMatches.Dispose()
}

func digitsOf(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
