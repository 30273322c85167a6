package ports

import "context"

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}
