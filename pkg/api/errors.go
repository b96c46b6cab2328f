package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// TimeoutMessage is the user-facing message for request timeouts.
const TimeoutMessage = "Request timed out. Please try again."

// Error is a normalized request failure.
//
// HTTP failures carry StatusCode and the response body's message field
// when present. Transport failures (no response received) have
// IsNetworkError set and StatusCode zero.
type Error struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Message is the user-facing failure description.
	Message string

	// IsNetworkError marks failures where no response was received,
	// including timeouts.
	IsNetworkError bool

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
	}
	return "api: " + e.Message
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the failure is an authorization failure.
func (e *Error) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// NewHTTPError builds an Error from a non-2xx response. The body is
// searched for a JSON message field; the status text is the fallback.
func NewHTTPError(statusCode int, body []byte, statusText string) *Error {
	msg := statusText
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			msg = parsed.Message
		} else if parsed.Error != "" {
			msg = parsed.Error
		}
	}
	return &Error{StatusCode: statusCode, Message: msg}
}

// NewTransportError classifies a transport failure. Timeouts get the
// fixed TimeoutMessage; anything else keeps the raw transport message.
func NewTransportError(err error) *Error {
	return &Error{
		Message:        transportMessage(err),
		IsNetworkError: true,
		Err:            err,
	}
}

func transportMessage(err error) string {
	if isTimeout(err) {
		return TimeoutMessage
	}
	return err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNetworkError
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
