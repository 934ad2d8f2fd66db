// Package apperr defines the error kinds services report to handlers
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Conflict
	RateLimited
	Expired
	ServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	case Expired:
		return "expired"
	case ServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code. Unavailable generation
// backends report 500 to match what clients already branch on.
func (k Kind) Status() int {
	switch k {
	case Validation, Expired:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

func Wrap(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}

func WithFields(msg string, fields []FieldError) *Error {
	return &Error{Kind: Validation, Message: msg, Fields: fields}
}

// From normalizes any error into an *Error. Known storage errors keep
// their meaning, everything else becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(NotFound, "Resource not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(Conflict, "Resource already exists", err)
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidField):
		return Wrap(Validation, "Invalid data", err)
	}

	return Wrap(Internal, "Internal server error", err)
}

// KindOf returns the kind of err, Internal for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return From(err).Kind
}
