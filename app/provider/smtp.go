package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPProvider relays messages through an SMTP submission server.
type SMTPProvider struct {
	addr     string
	source   string
	auth     sasl.Client
	startTLS bool
}

// NewSMTPProvider builds a relay provider. PLAIN auth is used when a username
// is given. With startTLS the session is upgraded before anything is sent and
// relays without STARTTLS are refused.
func NewSMTPProvider(addr string, source string, username string, password string, startTLS bool) *SMTPProvider {
	p := &SMTPProvider{addr: addr, source: source, startTLS: startTLS}
	if username != "" {
		p.auth = sasl.NewPlainClient("", username, password)
	}
	return p
}

// SendRaw delivers raw to recipient. The whole SMTP session is bound to ctx:
// its deadline caps every command and cancelling it closes the connection.
func (p *SMTPProvider) SendRaw(ctx context.Context, recipient string, raw []byte) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient is required")
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("raw content is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return "", fmt.Errorf("smtp dial %s: %w", p.addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	resp, err := p.session(ctx, conn, recipient, raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("smtp send via %s: %w", p.addr, ctxErr)
		}
		if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
			return "", fmt.Errorf("smtp send via %s: %w", p.addr, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("smtp send via %s: %w", p.addr, err)
	}
	return resp, nil
}

func (p *SMTPProvider) session(ctx context.Context, conn net.Conn, recipient string, raw []byte) (string, error) {
	var (
		c   *smtp.Client
		err error
	)
	if p.startTLS {
		host, _, splitErr := net.SplitHostPort(p.addr)
		if splitErr != nil {
			host = p.addr
		}
		c, err = smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
		if err != nil {
			_ = conn.Close()
			return "", err
		}
	} else {
		c = smtp.NewClient(conn)
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		c.CommandTimeout = remaining
		c.SubmissionTimeout = remaining
	}

	if p.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return "", errors.New("server does not support AUTH")
		}
		if err := c.Auth(p.auth); err != nil {
			return "", err
		}
	}

	if err := c.Mail(p.source, nil); err != nil {
		return "", err
	}
	if err := c.Rcpt(recipient, nil); err != nil {
		return "", err
	}
	w, err := c.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(raw); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	_ = c.Quit()

	return "accepted by " + p.addr, nil
}
