package dto

import (
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

const maxSubjectLength = 150

type MailRequest struct {
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	MailingID *int64 `json:"mailing_id"`
}

// BindMailRequest binds and normalizes a mail payload.
func BindMailRequest(ctx echo.Context) (MailRequest, error) {
	var req MailRequest
	if err := ctx.Bind(&req); err != nil {
		return MailRequest{}, err
	}
	req.Subject = strings.TrimSpace(req.Subject)
	return req, nil
}

func (r *MailRequest) Validate() error {
	if r.Subject == "" {
		return ErrSubjectRequired
	}
	if utf8.RuneCountInString(r.Subject) > maxSubjectLength {
		return ErrSubjectTooLong
	}
	if strings.TrimSpace(r.Content) == "" {
		return ErrContentRequired
	}
	if r.MailingID != nil && *r.MailingID <= 0 {
		return ErrInvalidID
	}
	return nil
}

func (r MailRequest) Entity(id int64) entity.Mail {
	return entity.Mail{
		ID:        id,
		Subject:   r.Subject,
		Content:   r.Content,
		MailingID: r.MailingID,
	}
}
