package domain

import "time"

// MaxMessageLength is the longest body (in characters) a single text message may carry.
const MaxMessageLength = 160

// ScheduledMessage is a text message waiting in the queue for its delivery time.
type ScheduledMessage struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	To        string    `json:"to"`
	DeliverAt time.Time `json:"deliver_at"`
}

// Due reports whether the message should be sent at now.
func (m ScheduledMessage) Due(now time.Time) bool {
	return !m.DeliverAt.After(now)
}
