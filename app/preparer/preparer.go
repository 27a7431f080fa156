package preparer

import (
	"context"
	"fmt"
	"time"
)

// EmailPreparer turns a mailing message into a raw MIME message.
type EmailPreparer interface {
	Prepare(ctx context.Context, msg Message) ([]byte, error)
}

type Header struct {
	Name  string
	Value string
}

type Message struct {
	MailingID  int64
	Occurrence time.Time
	Recipient  string
	Subject    string
	Content    string
	Headers    []Header
	Raw        []byte
}

// SetHeader replaces or appends a header.
func (m *Message) SetHeader(name, value string) {
	for i := range m.Headers {
		if m.Headers[i].Name == name {
			m.Headers[i].Value = value
			return
		}
	}
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

type Step interface {
	Prepare(ctx context.Context, msg *Message) error
}

type Chain struct {
	steps []Step
}

// NewChain builds an email preparer chain from steps.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Prepare runs all preparer steps and returns the final raw message.
func (c *Chain) Prepare(ctx context.Context, msg Message) ([]byte, error) {
	for _, step := range c.steps {
		if err := step.Prepare(ctx, &msg); err != nil {
			return nil, err
		}
	}

	if len(msg.Raw) == 0 {
		return nil, fmt.Errorf("prepared raw message is empty")
	}

	return msg.Raw, nil
}
