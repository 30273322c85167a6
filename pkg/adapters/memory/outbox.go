package memory

import (
	"context"
	"sync"
)

// Sent is a message recorded by an Outbox.
type Sent struct {
	To   string
	Body string
}

// Outbox implements ports.SMSSender by recording messages instead of sending them.
// It backs local development and tests.
type Outbox struct {
	mu   sync.Mutex
	sent []Sent
	fail error
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send records the message, or returns the error configured with FailWith.
func (o *Outbox) Send(ctx context.Context, to, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.sent = append(o.sent, Sent{To: to, Body: body})
	return nil
}

// FailWith makes every following Send return err. Pass nil to recover.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

// Sent returns a copy of the recorded messages.
func (o *Outbox) Sent() []Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Sent, len(o.sent))
	copy(out, o.sent)
	return out
}

// Last returns the most recent message sent to number.
func (o *Outbox) Last(number string) (Sent, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == number {
			return o.sent[i], true
		}
	}
	return Sent{}, false
}
