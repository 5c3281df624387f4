package ocr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a recognition failure. The set is closed: every error
// produced by this module carries exactly one of these codes, and callers
// dispatch on the code rather than on message text.
type Code string

const (
	// CodeConfiguration covers a missing or malformed credential.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeValidation covers a malformed image payload or a 400-class
	// rejection from the recognition service.
	CodeValidation Code = "VALIDATION"

	// CodeNetwork covers transport-level failures. Retryable.
	CodeNetwork Code = "NETWORK"

	// CodeAuth covers a rejected credential. Not retryable without a
	// new credential.
	CodeAuth Code = "AUTH"

	// CodeQuota covers rate or usage limits. Retryable after backoff.
	CodeQuota Code = "QUOTA"

	// CodeService covers any other unexpected non-2xx response.
	CodeService Code = "SERVICE"

	// CodeState covers operations invoked before initialization.
	CodeState Code = "STATE"
)

// Error is a structured recognition failure.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Factory functions, one per code.

func NewConfigurationError(msg string) *Error {
	return &Error{Code: CodeConfiguration, Message: msg}
}

func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func NewNetworkError(msg string, cause error) *Error {
	return &Error{Code: CodeNetwork, Message: msg, Cause: cause}
}

func NewAuthError(msg string) *Error {
	return &Error{Code: CodeAuth, Message: msg}
}

func NewQuotaError(msg string) *Error {
	return &Error{Code: CodeQuota, Message: msg}
}

func NewServiceError(msg string, cause error) *Error {
	return &Error{Code: CodeService, Message: msg, Cause: cause}
}

func NewStateError(msg string) *Error {
	return &Error{Code: CodeState, Message: msg}
}

// CodeOf extracts the taxonomy code from err, unwrapping as needed.
// Errors from outside the taxonomy report CodeService.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeService
}

// statusCodes is the single mapping table from an HTTP response status to
// a taxonomy code. Statuses absent from the table map to CodeService.
var statusCodes = map[int]Code{
	http.StatusForbidden:       CodeAuth,
	http.StatusTooManyRequests: CodeQuota,
	http.StatusBadRequest:      CodeValidation,
}

// FromHTTPStatus converts a non-2xx response into the matching taxonomy
// error. The detail string is the response body excerpt; for 400-class
// rejections it becomes the error message itself, echoing the server.
func FromHTTPStatus(status int, detail string) *Error {
	code, ok := statusCodes[status]
	if !ok {
		return NewServiceError(fmt.Sprintf("recognition service returned status %d: %s", status, detail), nil)
	}
	switch code {
	case CodeAuth:
		return NewAuthError("authentication failed: the recognition service rejected the credential")
	case CodeQuota:
		return NewQuotaError("quota exceeded: the recognition service is rate limiting requests")
	default:
		return NewValidationError(detail)
	}
}
