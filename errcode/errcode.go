// Package errcode is the dispatcher's stable error taxonomy (spec.md §7):
// a comparable, allocation-free string Code that also implements error,
// plus an E wrapper for when a cause needs to travel with it.
package errcode

// Code is a stable error identifier returned across the Dispatcher's public
// API. It is a string newtype, comparable, allocation-free, and implements
// error directly so it can be compared or wrapped interchangeably.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (spec.md §7).
const (
	OK Code = "ok"

	// InvalidArgs is caller-side validation failure, surfaced synchronously
	// from SubmitBlocking without ever enqueueing onto the Driver.
	InvalidArgs Code = "invalid_args"

	// HalFailed means the HAL open/close/send failed, or the HAL was torn
	// down before a response could be delivered. Non-retriable.
	HalFailed Code = "hal_failed"

	// Timeout means retries were exhausted; the chip was reset as a
	// side-effect of exhaustion (core_initialization was invoked).
	Timeout Code = "timeout"

	// ResponseMismatched means a response variant did not correspond to
	// the in-flight command's variant.
	ResponseMismatched Code = "response_mismatched"

	// WrongState means the operation is not valid in the current HalState,
	// e.g. Disable while already closed.
	WrongState Code = "wrong_state"

	// ParseError means a packet could not be decoded. The Driver logs and
	// drops it; it is never surfaced to a caller waiting on a response
	// (a parse failure on the response path is treated as a missing
	// response, i.e. folded into the retry loop).
	ParseError Code = "parse_error"

	// Undefined surfaces a recovered Driver panic through WaitForExit.
	Undefined Code = "undefined"

	Error Code = "error" // generic fallback
)

// E is an optional wrapper carrying an operation name, a human message, and
// the underlying cause alongside a stable Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E with the given code, operation, and message.
func New(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg}
}

// Wrap builds an *E carrying an underlying cause.
func Wrap(c Code, op string, err error) *E {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
