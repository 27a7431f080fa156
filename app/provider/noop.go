package provider

import "context"

// NoopProvider is a stubbed provider that pretends to send emails.
type NoopProvider struct{}

// NewNoopProvider constructs a no-op email provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (p *NoopProvider) SendRaw(_ context.Context, _ string, _ []byte) (string, error) {
	return "noop: not delivered", nil
}
