package errors

import (
	"context"
	"errors"
	"fmt"
)

type ProbeError struct {
	Code    string
	Message string
	Cause   error
	Op      string
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

const (
	ErrCodeTimeout               = "TIMEOUT"
	ErrCodeNetworkUnreachable    = "NETWORK_UNREACHABLE"
	ErrCodeHTTPStatus            = "HTTP_STATUS"
	ErrCodeSanityRejected        = "SANITY_REJECTED"
	ErrCodeCapabilityUnavailable = "CAPABILITY_UNAVAILABLE"
	ErrCodePartialDegradation    = "PARTIAL_DEGRADATION"
)

func ErrTimeout(op string) *ProbeError {
	return &ProbeError{
		Code:    ErrCodeTimeout,
		Message: "operation timed out",
		Op:      op,
	}
}

func ErrNetworkUnreachable(op string, cause error) *ProbeError {
	return &ProbeError{
		Code:    ErrCodeNetworkUnreachable,
		Message: "network request failed",
		Cause:   cause,
		Op:      op,
	}
}

func ErrHTTPStatus(op string, status string) *ProbeError {
	return &ProbeError{
		Code:    ErrCodeHTTPStatus,
		Message: "unexpected response status " + status,
		Op:      op,
	}
}

func ErrSanityRejected(mbps float64) *ProbeError {
	return &ProbeError{
		Code:    ErrCodeSanityRejected,
		Message: fmt.Sprintf("throughput sample %.2f Mbps outside sane range", mbps),
	}
}

func ErrCapabilityUnavailable(capability string) *ProbeError {
	return &ProbeError{
		Code:    ErrCodeCapabilityUnavailable,
		Message: capability + " not available in this environment",
	}
}

func ErrPartialDegradation(op string, cause error) *ProbeError {
	return &ProbeError{
		Code:    ErrCodePartialDegradation,
		Message: "one or more lookups failed",
		Cause:   cause,
		Op:      op,
	}
}

// Code extracts the taxonomy code from err, or "" when err carries none.
func Code(err error) string {
	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// friendlyMessages maps taxonomy codes to user-facing notification text.
// Unmatched codes fall back to a generic default.
var friendlyMessages = map[string]string{
	ErrCodeTimeout:               "The request took too long. Check your connection and try again.",
	ErrCodeNetworkUnreachable:    "Could not reach the network. Check your connection and try again.",
	ErrCodeHTTPStatus:            "The service responded with an error. Try again later.",
	ErrCodeCapabilityUnavailable: "This feature is not available in the current environment.",
	ErrCodePartialDegradation:    "Some network information could not be loaded.",
}

const genericFriendlyMessage = "Something went wrong. Please try again."

// FriendlyMessage returns the user-facing text for err.
func FriendlyMessage(err error) string {
	if msg, ok := friendlyMessages[Code(err)]; ok {
		return msg
	}
	return genericFriendlyMessage
}

func IsTimeout(err error) bool {
	return Code(err) == ErrCodeTimeout || errors.Is(err, context.DeadlineExceeded)
}

func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
