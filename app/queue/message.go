package queue

import (
	"fmt"
	"strconv"
	"time"
)

const StreamName = "mailings:dispatch"
const ConsumerGroup = "mailing-dispatchers"

// DispatchMessage asks a consumer to dispatch one occurrence of a mailing.
type DispatchMessage struct {
	MailingID  int64
	Occurrence time.Time
}

func (m DispatchMessage) values() map[string]interface{} {
	return map[string]interface{}{
		"mailing_id": strconv.FormatInt(m.MailingID, 10),
		"occurrence": m.Occurrence.UTC().Format(time.RFC3339Nano),
	}
}

func (m DispatchMessage) dedupeKey() string {
	return fmt.Sprintf("%s:published:%d:%d", StreamName, m.MailingID, m.Occurrence.Unix())
}

func parseDispatchMessage(values map[string]interface{}) (DispatchMessage, error) {
	rawID, _ := values["mailing_id"].(string)
	rawOccurrence, _ := values["occurrence"].(string)

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return DispatchMessage{}, fmt.Errorf("invalid mailing_id %q: %w", rawID, err)
	}
	occurrence, err := time.Parse(time.RFC3339Nano, rawOccurrence)
	if err != nil {
		return DispatchMessage{}, fmt.Errorf("invalid occurrence %q: %w", rawOccurrence, err)
	}
	return DispatchMessage{MailingID: id, Occurrence: occurrence}, nil
}
