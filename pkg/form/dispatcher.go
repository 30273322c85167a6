package form

import (
	"context"
	"log/slog"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/aretw0/textremind/pkg/reactive"
)

// Action names, as reported in events and metrics.
const (
	ActionStartVerification = "start_verification"
	ActionSetPassword       = "set_password"
	ActionSchedule          = "schedule"
)

// Dispatcher runs the user-triggered actions of a Form.
//
// Every action reads the form on the loop, sends one request off-loop and
// writes the outcome back on the loop. Flags only turn true on a confirmed
// success. Each method reports whether a request was issued.
type Dispatcher struct {
	form      *Form
	rt        *reactive.Runtime
	transport ports.Transport
	logger    *slog.Logger
}

// NewDispatcher creates the dispatcher of f.
func NewDispatcher(f *Form) *Dispatcher {
	return &Dispatcher{
		form:      f,
		rt:        f.rt,
		transport: f.transport,
		logger:    f.rt.Logger(),
	}
}

// StartVerification asks the backend to text a code to the number. It does
// nothing when the number is already verified or not valid.
func (d *Dispatcher) StartVerification() bool {
	f := d.form
	if f.NumberVerified.Peek().Status == reactive.Done && f.NumberVerified.Peek().Value {
		d.skip(ActionStartVerification)
		return false
	}
	if !d.peekSatisfied(f.Number) {
		d.skip(ActionStartVerification)
		return false
	}

	payload := map[string]any{"number": f.digits.Peek()}
	d.send(ActionStartVerification, domain.EndpointSendVerification, payload, func(_ map[string]any, err error) {
		if err != nil {
			f.codeSent.Set(false)
			f.notice.Set("Could not send the verification code: " + domain.MessageOf(err))
			return
		}
		f.codeSent.Set(true)
	})
	return true
}

// SetPassword stores the entered password for the number. It does nothing when
// the password is empty or invalid. On success the number is checked again,
// since setting a password is what makes it verified.
func (d *Dispatcher) SetPassword() bool {
	f := d.form
	if !d.peekSatisfied(f.Password) || !d.peekSatisfied(f.Number) {
		d.skip(ActionSetPassword)
		return false
	}

	payload := map[string]any{"number": f.digits.Peek(), "password": f.Password.Peek()}
	d.send(ActionSetPassword, domain.EndpointSetPassword, payload, func(_ map[string]any, err error) {
		if err != nil {
			f.passwordSet.Set(false)
			f.notice.Set("Could not set the password: " + domain.MessageOf(err))
			return
		}
		f.passwordSet.Set(true)
		f.NumberVerified.Refresh()
	})
	return true
}

// Schedule submits the message. It does nothing unless the form is Ready.
// The delivery time is sent as unix seconds.
func (d *Dispatcher) Schedule() bool {
	f := d.form
	ready := false
	d.rt.Untracked(func() { ready = f.Ready() })
	if !ready {
		d.skip(ActionSchedule)
		return false
	}

	at, err := f.parser.Unix(f.DeliveryTime.Peek(), d.rt.Now())
	if err != nil {
		// The time was valid when typed but has passed since.
		f.messageSent.Set(false)
		f.scheduleError.Set(InvalidTime)
		d.skip(ActionSchedule)
		return false
	}

	payload := map[string]any{
		"body":     f.Message.Peek(),
		"to":       f.digits.Peek(),
		"time":     at,
		"password": f.Password.Peek(),
	}
	d.send(ActionSchedule, domain.EndpointSchedule, payload, func(_ map[string]any, err error) {
		if err != nil {
			f.messageSent.Set(false)
			f.scheduleError.Set(domain.MessageOf(err))
			return
		}
		f.messageSent.Set(true)
		f.scheduleError.Set("")
	})
	return true
}

func (d *Dispatcher) peekSatisfied(field *Field) bool {
	ok := false
	d.rt.Untracked(func() { ok = field.Satisfied() })
	return ok
}

func (d *Dispatcher) skip(action string) {
	d.logger.Debug("action skipped", "action", action)
	d.rt.EmitAction(domain.EventActionFinish, &domain.ActionEvent{Action: action, Skipped: true})
}

func (d *Dispatcher) send(action, endpoint string, payload map[string]any, apply func(map[string]any, error)) {
	d.rt.EmitAction(domain.EventActionStart, &domain.ActionEvent{Action: action})
	d.rt.Go(func(ctx context.Context) func() {
		resp, err := d.transport.Send(ctx, endpoint, payload)
		return func() {
			if err != nil {
				d.logger.Warn("action failed", "action", action, "error", err)
			}
			d.rt.Batch(func() { apply(resp, err) })
			d.rt.EmitAction(domain.EventActionFinish, &domain.ActionEvent{Action: action, Err: err})
		}
	})
}
