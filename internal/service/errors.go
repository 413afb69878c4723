package service

import "errors"

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrUnknownTerm     = errors.New("unknown term")
	ErrUnknownKind     = errors.New("unknown column kind")
	ErrInvalidDate     = errors.New("class date must not be empty")
	ErrEmailDisabled   = errors.New("email alerts are disabled")
	ErrInvalidBackup   = errors.New("invalid backup")
)
