package ports

import "context"

// Transport sends one request to a backend endpoint.
//
// Send resolves with the decoded response object on a 2xx/3xx status. Any other
// status yields a *domain.APIError; connectivity problems wrap domain.ErrUnreachable.
// Timeouts, if any, belong to the implementation.
type Transport interface {
	Send(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	return f(ctx, endpoint, payload)
}
