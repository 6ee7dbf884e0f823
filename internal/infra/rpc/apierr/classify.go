package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// NetworkErrorMessage is the fixed message of every Network error.
const NetworkErrorMessage = "network error occurred"

// FailureType tags the shape of a raw failure.
type FailureType int

const (
	FailureLocal      FailureType = iota // Nothing was sent
	FailureNoResponse                    // Request sent, no response arrived
	FailureResponse                      // Remote side answered with an error status
)

// Failure is a raw failure as observed by the transport, tagged once at the
// point it happens so classification never has to probe its shape.
type Failure struct {
	Type FailureType

	// Response fields, only meaningful for FailureResponse.
	Status int
	Body   []byte
	Header http.Header

	// Message is the transport-level message used when the body has none.
	Message string

	// Err is the low-level fault for FailureLocal and FailureNoResponse.
	Err error
}

// ResponseFailure describes a response carrying a non-success status.
func ResponseFailure(status int, body []byte, header http.Header, message string) Failure {
	return Failure{
		Type:    FailureResponse,
		Status:  status,
		Body:    body,
		Header:  header,
		Message: message,
	}
}

// NoResponseFailure describes a request that was sent without a response.
func NoResponseFailure(err error) Failure {
	return Failure{Type: FailureNoResponse, Err: err}
}

// LocalFailure describes a fault raised before anything was dispatched.
func LocalFailure(err error) Failure {
	return Failure{Type: FailureLocal, Err: err}
}

// errorBody is the error shape returned by the API.
type errorBody struct {
	Message   string
	RequestID string
	Details   any
}

// Classify maps a raw failure to exactly one error kind. It never panics and
// never returns nil.
func Classify(f Failure) *Error {
	switch f.Type {
	case FailureResponse:
		return classifyResponse(f)
	case FailureNoResponse:
		return &Error{
			Kind:    KindNetwork,
			Message: NetworkErrorMessage,
			Details: f.Err,
			Cause:   f.Err,
		}
	default:
		msg := f.Message
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if msg == "" {
			msg = "unknown error"
		}
		return &Error{Kind: KindGeneric, Message: msg, Cause: f.Err}
	}
}

func classifyResponse(f Failure) *Error {
	body, decoded := decodeBody(f.Body)

	msg := body.Message
	if msg == "" {
		msg = f.Message
	}
	if msg == "" {
		msg = http.StatusText(f.Status)
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", f.Status)
	}

	e := &Error{
		Message:   msg,
		Status:    f.Status,
		RequestID: body.RequestID,
	}

	switch f.Status {
	case http.StatusBadRequest:
		e.Kind = KindValidation
		e.Details = body.Details
		if e.Details == nil {
			e.Details = decoded
		}
	case http.StatusUnauthorized:
		e.Kind = KindAuthentication
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusConflict:
		e.Kind = KindConflict
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = parseRetryAfter(f.Header)
	default:
		e.Kind = KindGeneric
		e.Details = decoded
	}

	return e
}

// decodeBody decodes the error body best effort. The second return value is
// the generic decoded document: nil for an empty body, the raw text when the
// body is not JSON.
func decodeBody(raw []byte) (errorBody, any) {
	var body errorBody
	if len(raw) == 0 {
		return body, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return body, string(raw)
	}

	// A JSON object that does not match errorBody still decodes generically.
	if obj, ok := decoded.(map[string]any); ok {
		if s, ok := obj["message"].(string); ok {
			body.Message = s
		}
		if s, ok := obj["requestId"].(string); ok {
			body.RequestID = s
		}
		body.Details = obj["details"]
	}

	return body, decoded
}

// parseRetryAfter reads the retry-after header as whole seconds.
// HTTP-date values, negative numbers and garbage leave the hint absent.
func parseRetryAfter(h http.Header) *int {
	if h == nil {
		return nil
	}
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return nil
	}
	return &secs
}
