package ports

import (
	"context"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
)

// VerificationStore persists the verification state of phone numbers.
type VerificationStore interface {
	// SaveCode stores the latest verification code issued for number.
	SaveCode(ctx context.Context, number, code string) error

	// Code returns the latest code issued for number.
	// Returns domain.ErrCodeNotFound if none was issued.
	Code(ctx context.Context, number string) (string, error)

	// MarkCodeVerified records that number proved ownership with a code but has
	// no password yet.
	MarkCodeVerified(ctx context.Context, number string) error

	// IsCodeVerified reports whether MarkCodeVerified was called for number.
	IsCodeVerified(ctx context.Context, number string) (bool, error)

	// MarkVerified records that number is fully verified (a password is set).
	MarkVerified(ctx context.Context, number string) error

	// IsVerified reports whether number is fully verified.
	IsVerified(ctx context.Context, number string) (bool, error)

	// SetPasswordHash stores the password hash of number.
	SetPasswordHash(ctx context.Context, number string, hash []byte) error

	// PasswordHash returns the stored hash.
	// Returns domain.ErrPasswordNotSet if none was stored.
	PasswordHash(ctx context.Context, number string) ([]byte, error)
}

// MessageQueue holds scheduled messages until they are delivered.
type MessageQueue interface {
	// Enqueue adds msg to the queue.
	Enqueue(ctx context.Context, msg domain.ScheduledMessage) error

	// Due returns the messages whose delivery time is not after now, oldest first.
	Due(ctx context.Context, now time.Time) ([]domain.ScheduledMessage, error)

	// Ack removes a delivered message. Acking an unknown ID is not an error.
	Ack(ctx context.Context, id string) error

	// Len returns the number of queued messages.
	Len(ctx context.Context) (int, error)
}
