package service

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a failure with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func invalid(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }
