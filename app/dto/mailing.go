package dto

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

type MailingRequest struct {
	MailID       *int64     `json:"mail_id"`
	RecipientIDs []int64    `json:"recipient_ids"`
	Start        *time.Time `json:"start"`
	Next         *time.Time `json:"next"`
	Finish       time.Time  `json:"finish"`
	Frequency    string     `json:"frequency"`
	IsActivated  *bool      `json:"is_activated"`
}

// BindMailingRequest binds and normalizes a mailing payload.
func BindMailingRequest(ctx echo.Context) (MailingRequest, error) {
	var req MailingRequest
	if err := ctx.Bind(&req); err != nil {
		return MailingRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and enum values.
func (r *MailingRequest) Validate() error {
	if r.Finish.IsZero() {
		return ErrFinishRequired
	}
	if !entity.Frequency(r.Frequency).Valid() {
		return ErrInvalidFrequency
	}
	if r.Start != nil && r.Finish.Before(*r.Start) {
		return ErrFinishBeforeStart
	}
	if r.MailID != nil && *r.MailID <= 0 {
		return ErrInvalidID
	}
	for _, id := range r.RecipientIDs {
		if id <= 0 {
			return ErrInvalidID
		}
	}
	return nil
}

// Entity converts the request into a mailing. Missing start and next stay
// zero and are defaulted by the service; activation defaults to true.
func (r MailingRequest) Entity(id int64) entity.Mailing {
	m := entity.Mailing{
		ID:           id,
		MailID:       r.MailID,
		RecipientIDs: r.RecipientIDs,
		Finish:       r.Finish.UTC(),
		Frequency:    entity.Frequency(r.Frequency),
		IsActivated:  true,
	}
	if r.Start != nil {
		m.Start = r.Start.UTC()
	}
	if r.Next != nil {
		m.Next = r.Next.UTC()
	}
	if r.IsActivated != nil {
		m.IsActivated = *r.IsActivated
	}
	return m
}

func (r *MailingRequest) normalize() {
	r.Frequency = strings.ToLower(strings.TrimSpace(r.Frequency))

	seen := make(map[int64]bool, len(r.RecipientIDs))
	ids := r.RecipientIDs[:0]
	for _, id := range r.RecipientIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	r.RecipientIDs = ids
}

type ActivationRequest struct {
	IsActivated *bool `json:"is_activated"`
}

func BindActivationRequest(ctx echo.Context) (ActivationRequest, error) {
	var req ActivationRequest
	if err := ctx.Bind(&req); err != nil {
		return ActivationRequest{}, err
	}
	return req, nil
}

func (r *ActivationRequest) Validate() error {
	if r.IsActivated == nil {
		return ErrActivationMissing
	}
	return nil
}
