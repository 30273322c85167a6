package testutils

import (
	"context"
	"testing"
	"time"
)

// Now is the moment tests pretend it is.
var Now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// Clock always returns Now.
func Clock() time.Time {
	return Now
}

// Context returns a context canceled when the test ends or after five seconds,
// whichever comes first.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
