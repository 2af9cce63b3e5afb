// Package goerror is the error taxonomy shared by every layer: a typed Error
// carries a client-safe message, a Code that maps to an HTTP status, optional
// per-field details and the underlying cause for logs.
package goerror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
	raw     string
}

var fallbackMessages = map[Type]string{
	TypeValidation: "Validation violation",
	TypeBusiness:   "Logical business not meet with requirement",
	TypeServer:     "Internal error",
}

// Error prefers the cause, then the message, then a per-type default.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	}
	if m, ok := fallbackMessages[e.errType]; ok {
		return m
	}
	return "Unknown error"
}

// String is the verbose form for logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }
func (e *Error) Type() Type { return e.errType }
func (e *Error) Code() Code { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Raw() string { return e.raw }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) StatusCode() int { return e.code.Status() }

// withFields copies kv pairs into e.fields. A trailing odd key is dropped.
func (e *Error) withFields(kv []string) *Error {
	for i := 0; i+1 < len(kv); i += 2 {
		if e.fields == nil {
			e.fields = make(map[string]string, len(kv)/2)
		}
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewNotFound is a business error with CodeNotFound.
func NewNotFound(msg string) error {
	return NewBusiness(msg, CodeNotFound)
}

// NewInvalidInput wraps a validator error, or builds field details from kv
// pairs. An odd kv count is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	return (&Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}).withFields(kv)
}

// NewInvalidFormat uses the first msg, if any.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}

func NewValidation(msg string) error {
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidInput}
}

// NewParse keeps the offending input so callers can report which line failed.
func NewParse(raw, msg string) error {
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat, raw: raw}
}

// NewCrypto keeps err for logs only; clients see a fixed message.
func NewCrypto(err error) error {
	return &Error{err: err, msg: "Failed to decrypt secret", errType: TypeServer, code: CodeCrypto}
}

func NewConfiguration(msg string) error {
	return &Error{msg: msg, errType: TypeServer, code: CodeConfiguration}
}

func NewUnsupportedType(kind string) error {
	return &Error{msg: "Unsupported type: " + kind, errType: TypeValidation, code: CodeUnsupported}
}

// NewUnavailable is a 503. kv pairs become the error fields.
func NewUnavailable(msg string, kv ...string) error {
	return (&Error{msg: msg, errType: TypeServer, code: CodeUnavailable}).withFields(kv)
}

// HasCode reports whether err is an *Error carrying code.
func HasCode(err error, code Code) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.code == code
}

// Message returns the client-safe message of err, or fallback when err is not
// an *Error or has none.
func Message(err error, fallback string) string {
	var ge *Error
	if errors.As(err, &ge) && ge.msg != "" {
		return ge.msg
	}
	return fallback
}
