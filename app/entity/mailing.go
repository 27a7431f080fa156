package entity

import "time"

type MailingStatus string

const (
	MailingStatusCreated    MailingStatus = "created"
	MailingStatusProcessing MailingStatus = "processing"
	MailingStatusFinished   MailingStatus = "finished"
)

// Valid reports whether s is a known status.
func (s MailingStatus) Valid() bool {
	switch s {
	case MailingStatusCreated, MailingStatusProcessing, MailingStatusFinished:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Mailing is a campaign binding one mail to a set of recipient clients.
type Mailing struct {
	ID           int64
	OwnerID      *int64
	MailID       *int64
	RecipientIDs []int64
	Start        time.Time
	Next         time.Time
	Finish       time.Time
	Status       MailingStatus
	Frequency    Frequency
	IsActivated  bool
	ClaimedAt    *time.Time
}
