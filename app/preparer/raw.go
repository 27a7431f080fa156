package preparer

import (
	"context"
	"fmt"
	"mime"
	"strings"
)

type RawPreparer struct {
	source string
}

// NewRawPreparer creates a preparer that builds a raw MIME message.
func NewRawPreparer(source string) *RawPreparer {
	return &RawPreparer{source: source}
}

// Prepare renders a plain-text UTF-8 message with the collected headers.
func (p *RawPreparer) Prepare(_ context.Context, msg *Message) error {
	if strings.TrimSpace(p.source) == "" {
		return fmt.Errorf("source email is required")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}

	var b strings.Builder
	writeHeader(&b, "From", p.source)
	writeHeader(&b, "To", msg.Recipient)
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	for _, h := range msg.Headers {
		writeHeader(&b, h.Name, h.Value)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(normalizeNewlines(msg.Content))

	msg.Raw = []byte(b.String())
	return nil
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// normalizeNewlines converts bare LF line endings to CRLF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
