package dto

import "errors"

var (
	ErrEmailRequired     = errors.New("email is required")
	ErrInvalidEmail      = errors.New("email must be a valid email address")
	ErrEmailTooLong      = errors.New("email must be at most 100 characters")
	ErrFullnameRequired  = errors.New("fullname is required")
	ErrFullnameTooLong   = errors.New("fullname must be at most 50 characters")
	ErrSubjectRequired   = errors.New("subject is required")
	ErrSubjectTooLong    = errors.New("subject must be at most 150 characters")
	ErrContentRequired   = errors.New("content is required")
	ErrFinishRequired    = errors.New("finish is required")
	ErrInvalidFrequency  = errors.New("frequency must be one of once, daily, weekly, monthly")
	ErrFinishBeforeStart = errors.New("finish must not be before start")
	ErrActivationMissing = errors.New("is_activated is required")
	ErrInvalidID         = errors.New("id must be a positive integer")
)
