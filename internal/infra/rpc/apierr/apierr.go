// Package apierr classifies remote-call failures into a closed error taxonomy.
//
// Every failure seen by the client ends up as exactly one *Error whose Kind
// callers can switch on:
//
//	if apierr.IsKind(err, apierr.KindRateLimited) {
//	    // slow down
//	}
package apierr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	KindGeneric        Kind = iota // Anything not covered below
	KindAuthentication             // Invalid or missing credential
	KindRateLimited                // Quota or throttling
	KindNotFound                   // Target resource absent
	KindConflict                   // Not valid in current remote state
	KindValidation                 // Input rejected locally or by the remote side
	KindNetwork                    // Request sent, no response received
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "generic"
	}
}

// Error is the single error type produced by classification.
// Per-kind payload lives in optional fields; RetryAfter is only set for
// KindRateLimited.
type Error struct {
	Kind    Kind
	Message string

	// Status is the HTTP status of the response, 0 when none was received.
	Status int

	// RequestID is the correlation id returned by the remote side.
	RequestID string

	// Details holds field-level issues (Validation), the decoded response
	// body (Generic) or the low-level fault (Network).
	Details any

	// RetryAfter is the server-supplied wait in whole seconds.
	RetryAfter *int

	// Cause is the underlying transport fault, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fathem %s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("fathem %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the transport fault for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// RetryAfterHint reports the retry-after hint in seconds.
func (e *Error) RetryAfterHint() (int, bool) {
	if e.Kind != KindRateLimited || e.RetryAfter == nil {
		return 0, false
	}
	return *e.RetryAfter, true
}

// New creates an error of the given kind with no remote metadata.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewValidation creates a Validation error carrying field-level details.
func NewValidation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors outside the taxonomy are Generic.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return KindGeneric
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}
