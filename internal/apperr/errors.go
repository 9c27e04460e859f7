// Package apperr defines the error taxonomy shared by the booking and trip services.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrAuth         = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrDatabase     = errors.New("database error")
	ErrRemoteCall   = errors.New("remote call failed")
	ErrCompensation = errors.New("compensation failed")
	ErrConflict     = errors.New("conflict")
)

// Error carries a kind from the taxonomy, a human readable message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func Auth(msg string) error {
	return &Error{Kind: ErrAuth, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Database(msg string, err error) error {
	return &Error{Kind: ErrDatabase, Message: msg, Err: err}
}

func Remote(msg string, err error) error {
	return &Error{Kind: ErrRemoteCall, Message: msg, Err: err}
}

// HTTPStatus maps an error to the status code the services respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRemoteCall), errors.Is(err, ErrCompensation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to API callers.
// Store level causes are not exposed.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if errors.Is(e.Kind, ErrDatabase) {
			return e.Message
		}
		return e.Error()
	}
	return "internal error"
}
