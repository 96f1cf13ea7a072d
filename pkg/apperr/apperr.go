// Package apperr defines the error taxonomy shared by all services.
// An Error carries a sanitized client-facing message and an optional
// internal cause; the cause is logged at the boundary and never returned
// to clients.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	Validation
	UnsupportedMedia
	Parse
	NotFound
	EmptyCatalog
	Storage
	Config
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case UnsupportedMedia:
		return "unsupported_media_type"
	case Parse:
		return "parse"
	case NotFound:
		return "not_found"
	case EmptyCatalog:
		return "empty_catalog"
	case Storage:
		return "storage"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the taxonomy kind of err, or Unknown if err does not
// wrap an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// MessageOf returns the sanitized message of err. Errors outside the
// taxonomy get a generic message so no internal detail leaks out.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
