package fdc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a request did not yield a parsed body.
type ErrorKind string

const (
	KindRateLimited         ErrorKind = "rate_limited"
	KindUpstreamRateLimited ErrorKind = "upstream_rate_limited"
	KindInvalidCredential   ErrorKind = "invalid_credential"
	KindUpstream            ErrorKind = "upstream_error"
	KindConnection          ErrorKind = "connection_error"
	KindTimeout             ErrorKind = "timeout"
	KindParse               ErrorKind = "parse_error"
)

// Kinds lists every ErrorKind.
var Kinds = []ErrorKind{
	KindRateLimited,
	KindUpstreamRateLimited,
	KindInvalidCredential,
	KindUpstream,
	KindConnection,
	KindTimeout,
	KindParse,
}

// RequestError is the failure result of Client.Do.
type RequestError struct {
	Kind       ErrorKind
	URL        string
	Status     int
	StatusText string
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.UserMessage()
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage is the human-readable text for the failure.
func (e *RequestError) UserMessage() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindRateLimited:
		if e.Message != "" {
			return e.Message
		}
		return "Rate limit reached"
	case KindUpstreamRateLimited:
		return "Rate limit exceeded"
	case KindInvalidCredential:
		return "Invalid API key"
	case KindUpstream:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.StatusText)
	case KindConnection:
		return "Connection error"
	case KindTimeout:
		return "Connection timeout"
	case KindParse:
		return "Error parsing API response"
	default:
		return "Unknown request error"
	}
}

// NeedsSettings reports whether the user should fix their key or quota before retrying.
func (e *RequestError) NeedsSettings() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindInvalidCredential, KindRateLimited, KindUpstreamRateLimited:
		return true
	default:
		return false
	}
}

// KindOf extracts the ErrorKind from err, or "" when err is not a RequestError.
func KindOf(err error) ErrorKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr != nil {
		return reqErr.Kind
	}
	return ""
}

// IsKind reports whether err is a RequestError of kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

var (
	// ErrMissingCredential is returned before any request when no API key is stored.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrEmptyQuery is returned for blank search input.
	ErrEmptyQuery = errors.New("search term is required")

	// ErrNoDataTypes is returned when a text search filters out every data type.
	ErrNoDataTypes = errors.New("at least one food type must be selected")

	// ErrFoodNotFound is returned when an FDC id lookup yields 404.
	ErrFoodNotFound = errors.New("food not found with that FDC ID")

	// ErrNoNDBMatch is returned when an NDB lookup finds no foods at all.
	ErrNoNDBMatch = errors.New("no food found with that NDB number")
)
