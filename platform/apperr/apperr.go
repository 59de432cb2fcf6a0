// Package apperr defines the typed errors services return. The HTTP
// layer maps an error's Kind onto a status code and serializes its
// stable Code, so handlers never translate errors themselves.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind is the error category that decides the HTTP status.
type Kind int

const (
	// KindUnknown is the zero value for errors with no category.
	KindUnknown Kind = iota
	// KindNotFound maps to 404.
	KindNotFound
	// KindValidation maps to 400 for rejected input.
	KindValidation
	// KindConflict maps to 409, for duplicates and illegal state changes.
	KindConflict
	// KindForbidden maps to 403.
	KindForbidden
	// KindUnauthorized maps to 401.
	KindUnauthorized
	// KindBadRequest maps to 400 for malformed requests.
	KindBadRequest
	// KindPaymentRequired maps to 402, when credits cannot cover the operation.
	KindPaymentRequired
	// KindInternal maps to 500.
	KindInternal
	// KindGone maps to 410, for resources that existed but expired.
	KindGone
)

// Error is a categorized domain error. Only Kind and Message are
// required; the rest is attached through the With* helpers.
type Error struct {
	Kind    Kind
	Message string
	Code    string      // stable machine-readable code
	Op      string      // operation that failed
	Err     error       // wrapped cause
	Details interface{} // extra payload for the response body
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus translates the error's Kind into a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindInternal:
		return http.StatusInternalServerError
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp records the failing operation for log output.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithCode sets the stable code clients branch on, so they never have
// to parse localized messages.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithDetails attaches an extra payload to the HTTP response.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Shorthand constructors, one per Kind.

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func PaymentRequired(message string) *Error {
	return New(KindPaymentRequired, message)
}

func Internal(message string) *Error {
	return New(KindInternal, message)
}

func Gone(message string) *Error {
	return New(KindGone, message)
}

// GetKind reports the error's Kind, or KindUnknown for untyped errors.
func GetKind(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
