// Package errs defines the closed error taxonomy shared by every layer of the
// quotes API. Each Kind resolves to a fixed HTTP status, a stable snake_case
// code and a default human-readable message.
//
// Services return *Error values (or plain errors, which collapse to
// InternalError); the HTTP layer only ever looks at the Kind to decide how a
// failure is rendered. Raw driver or parser text never leaves this boundary:
// the wrapped cause is kept for logging through Unwrap but is not part of the
// public message.
//
// Example:
//
//	if errors.Is(err, repo.ErrNotFound) {
//	    return errs.New(errs.NotFound, "")
//	}
//	return errs.Wrap(errs.InternalError, err, "")
package errs

import (
	"errors"
	"net/http"
)

// Kind is the discriminant of an API error. The zero value is InternalError
// so an unset kind never masquerades as a client error.
type Kind int

const (
	InternalError Kind = iota
	BadRequest
	Invalid
	ParseError
	Required
	UnknownAPI
	NotFound
	Conflict
	Duplicate
	UnsupportedMediaType
	RateLimited
	BackendError
	BackendNotConnected
	NotReady
)

// Entry is the resolved table row for a Kind.
type Entry struct {
	Status  int
	Code    string
	Message string
}

var table = map[Kind]Entry{
	BadRequest: {
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "The API request is invalid or improperly formed. Consequently, the API server could not understand the request.",
	},
	Invalid: {
		Status:  http.StatusBadRequest,
		Code:    "invalid",
		Message: "The request failed because it contained an invalid value. The value could be a parameter value, a header value, or a property value.",
	},
	ParseError: {
		Status:  http.StatusBadRequest,
		Code:    "parse_error",
		Message: "The API server cannot parse the request body.",
	},
	Required: {
		Status:  http.StatusBadRequest,
		Code:    "required",
		Message: "The API request is missing required information. The required information could be a parameter or resource property.",
	},
	UnknownAPI: {
		Status:  http.StatusBadRequest,
		Code:    "unknown_api",
		Message: "The API that the request is calling is not recognized.",
	},
	NotFound: {
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "The requested operation failed because a resource associated with the request could not be found.",
	},
	Conflict: {
		Status:  http.StatusConflict,
		Code:    "conflict",
		Message: "The API request cannot be completed because the requested operation would conflict with an existing item.",
	},
	Duplicate: {
		Status:  http.StatusConflict,
		Code:    "duplicate",
		Message: "The requested operation failed because it tried to create a resource that already exists.",
	},
	UnsupportedMediaType: {
		Status:  http.StatusUnsupportedMediaType,
		Code:    "unsupported_media_type",
		Message: "The API server does not support the media type transmitted in the request.",
	},
	RateLimited: {
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "Too many requests have been sent within a given time span.",
	},
	InternalError: {
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "The request failed due to an internal error.",
	},
	BackendError: {
		Status:  http.StatusServiceUnavailable,
		Code:    "backend_error",
		Message: "A backend error occurred.",
	},
	BackendNotConnected: {
		Status:  http.StatusServiceUnavailable,
		Code:    "backend_not_connected",
		Message: "The request failed due to a connection error.",
	},
	NotReady: {
		Status:  http.StatusServiceUnavailable,
		Code:    "not_ready",
		Message: "The API server is not ready to accept requests.",
	},
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		InternalError, BadRequest, Invalid, ParseError, Required, UnknownAPI,
		NotFound, Conflict, Duplicate, UnsupportedMediaType, RateLimited,
		BackendError, BackendNotConnected, NotReady,
	}
}

// Lookup resolves k to its table entry. Unknown kinds resolve to
// InternalError.
func Lookup(k Kind) Entry {
	if e, ok := table[k]; ok {
		return e
	}
	return table[InternalError]
}

// Status returns the HTTP status for k.
func (k Kind) Status() int { return Lookup(k).Status }

// Code returns the stable machine-readable code for k.
func (k Kind) Code() string { return Lookup(k).Code }

// Message returns the default message for k.
func (k Kind) Message() string { return Lookup(k).Message }

// String implements fmt.Stringer.
func (k Kind) String() string { return k.Code() }

// FieldError describes a single field-level violation.
type FieldError struct {
	Field   string `json:"field"   example:"body.text"`
	Rule    string `json:"rule"    example:"minLength"`
	Message string `json:"message" example:"must be at least 1 characters long"`
}

// Error is a classified API error.
type Error struct {
	Kind    Kind
	Message string       // public message; defaults to the kind's message
	Fields  []FieldError // optional field-level details
	Err     error        // internal cause, never rendered
}

// New returns an error of kind k with an optional public message.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg}
}

// Wrap classifies cause as kind k. cause is kept for logging only.
func Wrap(k Kind, cause error, msg string) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

// WithFields returns an error of kind k carrying field violations.
func WithFields(k Kind, fields []FieldError) *Error {
	return &Error{Kind: k, Fields: fields}
}

func (e *Error) Error() string {
	s := e.Kind.Code() + ": " + e.PublicMessage()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. It lets callers
// write errors.Is(err, errs.New(errs.NotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// PublicMessage returns the caller-facing message.
func (e *Error) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Message()
}

// KindOf narrows err to its Kind. Unclassified errors are InternalError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// As returns err as *Error, classifying unknown errors as InternalError
// with the default message.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(InternalError, err, "")
}
