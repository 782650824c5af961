package delivery

import "context"

// Receipt is a provider's answer to a successful send
type Receipt struct {
	// Confirmed is true when the provider confirms delivery synchronously.
	// Otherwise the message was only accepted and the log stays SENT.
	Confirmed bool
	MessageID string
}

// Provider hands a delivery request to an external channel
type Provider interface {
	Send(ctx context.Context, req Request) (Receipt, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, req Request) (Receipt, error)

// Send calls f(ctx, req)
func (f ProviderFunc) Send(ctx context.Context, req Request) (Receipt, error) {
	return f(ctx, req)
}
