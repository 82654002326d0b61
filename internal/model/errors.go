package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the analysis
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input" // Malformed repository URL
	KindNotFound     ErrorKind = "not_found"     // Repository has no README
	KindUpstream     ErrorKind = "upstream"      // Non-success status from the hosting API
	KindConfig       ErrorKind = "config"        // Missing credential or bad configuration
	KindParse        ErrorKind = "parse"         // Model output does not match the expected shape
	KindBusy         ErrorKind = "busy"          // A run is already in progress
)

// Sentinels for errors.Is comparisons
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUpstream     = &Error{Kind: KindUpstream}
	ErrConfig       = &Error{Kind: KindConfig}
	ErrParse        = &Error{Kind: KindParse}
	ErrBusy         = &Error{Kind: KindBusy}
)

// Error is a classified analysis failure
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a classified error with a formatted message
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind with a formatted message
func WrapError(err error, kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first classified error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
