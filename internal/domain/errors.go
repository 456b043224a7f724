package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures for the caller.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindEmptyPool  ErrorKind = "empty_pool"
	KindInternal   ErrorKind = "internal"
)

// Error is a typed engine error carrying enough context for the caller to
// render a specific message.
type Error struct {
	Kind       ErrorKind
	Message    string
	SessionID  string
	QuestionID string
	Action     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.SessionID != "" {
		msg += " (session " + e.SessionID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error of the given kind with a formatted message.
func E(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSession attaches the offending session ID.
func (e *Error) WithSession(id string) *Error {
	e.SessionID = id
	return e
}

// WithQuestion attaches the offending question ID.
func (e *Error) WithQuestion(id string) *Error {
	e.QuestionID = id
	return e
}

// WithAction attaches the rejected action name.
func (e *Error) WithAction(action string) *Error {
	e.Action = action
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf extracts the error kind; unclassified errors are treated as
// internal failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsNotFound(err error) bool   { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool   { return IsKind(err, KindConflict) }
func IsEmptyPool(err error) bool  { return IsKind(err, KindEmptyPool) }

// Internal wraps an unexpected collaborator failure.
func Internal(context string, err error) *Error {
	return E(KindInternal, "%s", context).Wrap(err)
}
