package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the session boundary so serving
// layers can pick a status code without matching message text.
type ErrorKind int

const (
	KindEngine ErrorKind = iota
	KindIO
	KindUnsupportedFormat
	KindParse
	KindInvalidArgument
	KindNotFound
	KindInternal
)

// String returns the kind's short name.
func (k ErrorKind) String() string {
	switch k {
	case KindEngine:
		return "engine"
	case KindIO:
		return "io"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindParse:
		return "parse"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error pairs a user-facing message with a failure category and an
// optional underlying cause.
type Error struct {
	Kind  ErrorKind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.cause != nil:
		return e.cause.Error()
	case e.cause != nil:
		return e.Msg + ": " + e.cause.Error()
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Errorf builds a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a category and message prefix to cause.
// A nil cause yields nil.
func Wrap(kind ErrorKind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// KindOf reports the category of err. Errors that never got classified
// count as internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
