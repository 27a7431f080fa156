package entity

import "time"

const (
	LogStatusNotInitiated = "attempt not initiated"
	LogStatusSent         = "sent"
	LogStatusFailed       = "failed"
)

// Log is one delivery attempt of a mailing occurrence to one client.
type Log struct {
	ID             int64
	MailingID      *int64
	ClientID       *int64
	Occurrence     time.Time
	AttemptTime    time.Time
	Status         string
	ServerResponse *string
}
