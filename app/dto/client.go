package dto

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-mailings/app/entity"
)

const (
	maxEmailLength    = 100
	maxFullnameLength = 50
)

type ClientRequest struct {
	Email    string  `json:"email"`
	Fullname string  `json:"fullname"`
	Comment  *string `json:"comment"`
}

// BindClientRequest binds and normalizes a client payload.
func BindClientRequest(ctx echo.Context) (ClientRequest, error) {
	var req ClientRequest
	if err := ctx.Bind(&req); err != nil {
		return ClientRequest{}, err
	}
	req.normalize()
	return req, nil
}

// Validate checks required fields and format constraints.
func (r *ClientRequest) Validate() error {
	if r.Email == "" {
		return ErrEmailRequired
	}
	if utf8.RuneCountInString(r.Email) > maxEmailLength {
		return ErrEmailTooLong
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return ErrInvalidEmail
	}
	if r.Fullname == "" {
		return ErrFullnameRequired
	}
	if utf8.RuneCountInString(r.Fullname) > maxFullnameLength {
		return ErrFullnameTooLong
	}
	return nil
}

// Entity converts the request into a client with the given ID.
func (r ClientRequest) Entity(id int64) entity.Client {
	return entity.Client{
		ID:       id,
		Email:    r.Email,
		Fullname: r.Fullname,
		Comment:  r.Comment,
	}
}

func (r *ClientRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Fullname = strings.TrimSpace(r.Fullname)
	if r.Comment != nil {
		trimmed := strings.TrimSpace(*r.Comment)
		if trimmed == "" {
			r.Comment = nil
		} else {
			r.Comment = &trimmed
		}
	}
}
