package rcsa

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies workflow errors for HTTP mapping.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindForbidden         ErrorKind = "forbidden"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_state_transition"
	KindInternal          ErrorKind = "internal"
)

// Error is a structured workflow error. Fields lists offending input fields
// for validation failures; CurrentState and Action are set for invalid state
// transitions.
type Error struct {
	Kind         ErrorKind    `json:"kind"`
	Message      string       `json:"message"`
	Fields       []string     `json:"fields,omitempty"`
	CurrentState MasterStatus `json:"currentState,omitempty"`
	Action       string       `json:"action,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to an HTTP status code. Invalid transitions
// are a specialization of conflict.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errValidation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func errForbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func errNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func errConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func errInvalidTransition(action string, current MasterStatus) *Error {
	return &Error{
		Kind:         KindInvalidTransition,
		Message:      fmt.Sprintf("cannot %s a master in state %s", action, current),
		CurrentState: current,
		Action:       action,
	}
}

// AsError extracts a *Error from err, wrapping anything else as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: err.Error()}
}
