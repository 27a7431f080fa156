package provider

import "context"

// EmailProvider delivers a prepared MIME message to one recipient and
// returns the transport's response for the delivery log.
type EmailProvider interface {
	SendRaw(ctx context.Context, recipient string, raw []byte) (string, error)
}
