// Package status defines a small error-code enum surfaced to control
// frontends instead of Go's open-ended error interface, so a gRPC/OSC
// frontend can map it 1:1 onto its own wire enum.
package status

import "fmt"

// Code is one of the taxonomy values from the external interface contract.
type Code int

const (
	OK Code = iota
	Error
	UnsupportedOperation
	NotFound
	OutOfRange
	InvalidArguments
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Error:
		return "ERROR"
	case UnsupportedOperation:
		return "UNSUPPORTED_OPERATION"
	case NotFound:
		return "NOT_FOUND"
	case OutOfRange:
		return "OUT_OF_RANGE"
	case InvalidArguments:
		return "INVALID_ARGUMENTS"
	default:
		return "UNKNOWN"
	}
}

// Status pairs a Code with an optional human-readable detail message.
type Status struct {
	Code    Code
	Message string
}

// Ok is the canonical success status.
var Ok = Status{Code: OK}

// New builds a Status with a formatted message.
func New(code Code, format string, args ...any) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsOK reports whether the status represents success.
func (s Status) IsOK() bool {
	return s.Code == OK
}

// Err converts a non-OK Status into an error for stdlib-style plumbing;
// OK converts to nil.
func (s Status) Err() error {
	if s.IsOK() {
		return nil
	}
	if s.Message == "" {
		return fmt.Errorf("%s", s.Code)
	}
	return fmt.Errorf("%s: %s", s.Code, s.Message)
}

func (s Status) Error() string {
	if s.Err() == nil {
		return "OK"
	}
	return s.Err().Error()
}
