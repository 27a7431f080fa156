// Package schedule holds the pure timing rules of a mailing: when an
// occurrence is due and where the following occurrence falls.
package schedule

import (
	"time"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

// IsEligible reports whether the mailing's current occurrence is due at now.
func IsEligible(m entity.Mailing, now time.Time) bool {
	if !m.IsActivated || m.Status == entity.MailingStatusFinished {
		return false
	}
	return !m.Next.After(now) && !m.Next.After(m.Finish)
}

// IsExpired reports whether an unfinished mailing has run past its finish
// time and must be finished without sending.
func IsExpired(m entity.Mailing) bool {
	return m.Status != entity.MailingStatusFinished && m.Next.After(m.Finish)
}

// NextOccurrence returns the occurrence following next for the given
// frequency. It returns false when no further occurrence exists.
func NextOccurrence(next time.Time, f entity.Frequency) (time.Time, bool) {
	return nextOccurrence(next, f, next.Day())
}

func nextOccurrence(next time.Time, f entity.Frequency, anchorDay int) (time.Time, bool) {
	switch f {
	case entity.FrequencyDaily:
		return next.AddDate(0, 0, 1), true
	case entity.FrequencyWeekly:
		return next.AddDate(0, 0, 7), true
	case entity.FrequencyMonthly:
		return addMonthClamped(next, anchorDay), true
	default:
		return time.Time{}, false
	}
}

// addMonthClamped moves t to anchorDay of the following month, clamping to
// that month's last day.
func addMonthClamped(t time.Time, anchorDay int) time.Time {
	year, month, _ := t.Date()
	month++
	day := anchorDay
	if last := daysIn(year, month, t.Location()); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// Transition is the state a mailing moves to once an occurrence is done.
type Transition struct {
	Next   time.Time
	Status entity.MailingStatus
}

// Finished reports whether the transition ends the mailing.
func (t Transition) Finished() bool {
	return t.Status == entity.MailingStatusFinished
}

// Advance computes the state after the mailing's current occurrence has been
// dispatched. Recurring mailings return to created until the following
// occurrence would fall after finish.
func Advance(m entity.Mailing) Transition {
	done := Transition{Next: m.Next, Status: entity.MailingStatusFinished}

	following, ok := nextOccurrence(m.Next, m.Frequency, monthlyAnchor(m))
	if !ok || following.After(m.Finish) {
		return done
	}
	return Transition{Next: following, Status: entity.MailingStatusCreated}
}

// monthlyAnchor keeps a month-end start date from drifting: once next was
// clamped to a short month, later occurrences return to the start's day.
func monthlyAnchor(m entity.Mailing) int {
	day := m.Next.Day()
	if m.Start.IsZero() || m.Start.Day() <= day {
		return day
	}
	year, month, _ := m.Next.Date()
	if day == daysIn(year, month, m.Next.Location()) {
		return m.Start.Day()
	}
	return day
}
