package weather

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the data layer.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindInvalidInput       Kind = "invalid_input"
	KindUnauthorized       Kind = "unauthorized"
	KindNotFound           Kind = "not_found"
	KindServiceUnavailable Kind = "service_unavailable"
	KindTimeout            Kind = "timeout"
	KindMalformedResponse  Kind = "malformed_response"
	KindDuplicateCity      Kind = "duplicate_city"
	KindStorageFailure     Kind = "storage_failure"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrMalformedResponse  = &Error{Kind: KindMalformedResponse}
	ErrDuplicateCity      = &Error{Kind: KindDuplicateCity}
	ErrStorageFailure     = &Error{Kind: KindStorageFailure}
)

// Error is the single error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "client.current"
	Message string
	Err     error
}

// NewError builds an *Error. err may be nil.
func NewError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
