package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEmail     = errors.New("client email already exists")
	ErrInvalidReference   = errors.New("referenced record does not belong to the actor")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotClaimed         = errors.New("occurrence not claimed")
)
