package preparer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// HeaderStep stamps delivery headers that identify the mailing occurrence.
type HeaderStep struct {
	domain string
	now    func() time.Time
}

// NewHeaderStep creates a step issuing Message-IDs under domain.
func NewHeaderStep(domain string) *HeaderStep {
	return &HeaderStep{domain: domain, now: time.Now}
}

func (s *HeaderStep) Prepare(_ context.Context, msg *Message) error {
	msg.SetHeader("Date", s.now().Format(time.RFC1123Z))
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain))
	if msg.MailingID != 0 {
		msg.SetHeader("X-Mailing-ID", strconv.FormatInt(msg.MailingID, 10))
	}
	if !msg.Occurrence.IsZero() {
		msg.SetHeader("X-Mailing-Occurrence", msg.Occurrence.UTC().Format(time.RFC3339))
	}
	return nil
}
