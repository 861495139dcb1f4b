// Package errors defines the closed set of failure kinds surfaced to the portal UI.
//
// Every failure that reaches a page handler is classified exactly once, at the
// boundary where it is produced (form validation, the API client, session
// storage), into one of the kinds below. Handlers only ever switch on the kind.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is never produced by this module; it is what KindOf reports
	// for foreign errors.
	KindUnknown Kind = iota
	// KindValidation is a local, pre-submit form failure.
	KindValidation
	// KindAuthFailure is an expected rejection of login or signup.
	KindAuthFailure
	// KindAuthzFailure is a 401 received mid-session.
	KindAuthzFailure
	// KindTransport covers network errors and non-auth error statuses.
	KindTransport
	// KindStorage is a durable-storage read or parse failure.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthFailure:
		return "auth_failure"
	case KindAuthzFailure:
		return "authz_failure"
	case KindTransport:
		return "transport"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Sentinels, one per kind. An *Error matches the sentinel of its kind with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAuthFailure  = errors.New("authentication failed")
	ErrAuthzFailure = errors.New("not authorized")
	ErrTransport    = errors.New("request failed")
	ErrStorage      = errors.New("session storage failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuthFailure:
		return ErrAuthFailure
	case KindAuthzFailure:
		return ErrAuthzFailure
	case KindTransport:
		return ErrTransport
	case KindStorage:
		return ErrStorage
	}
	return nil
}

// Error is the classified failure.
type Error struct {
	Kind    Kind
	Status  int               // HTTP status for remote failures, 0 otherwise
	Message string            // user-facing message
	Fields  map[string]string // per-field messages for KindValidation
	Err     error             // underlying cause

	handled bool
}

// New creates a classified error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Validation creates a KindValidation error carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Please correct the highlighted fields", Fields: fields}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// MarkHandled records that a global handler has already reacted to the
// failure (for example by redirecting to the login page).
func (e *Error) MarkHandled() *Error {
	e.handled = true
	return e
}

// KindOf reports the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Handled reports whether a global handler already produced the response for err.
// Callers must not render their own error branch in that case.
func Handled(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.handled
}

// Message returns the user-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}

// FieldErrors returns per-field messages for validation failures.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
