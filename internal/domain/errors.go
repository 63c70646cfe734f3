package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes on the likes path.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindRemoteUnavailable
	KindTransport
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRemoteUnavailable:
		return "remote_unavailable"
	case KindTransport:
		return "transport"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrRemoteUnavailable = &Error{Kind: KindRemoteUnavailable}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrPersistence       = &Error{Kind: KindPersistence}
)

func ValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func RemoteUnavailableError(message string, err error) error {
	return &Error{Kind: KindRemoteUnavailable, Message: message, Err: err}
}

func TransportError(message string, err error) error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

func PersistenceError(message string, err error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
