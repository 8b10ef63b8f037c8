package repositories

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrForbidden           = errors.New("requester is not the recipient")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrAlreadyExists       = errors.New("record already exists")
)
