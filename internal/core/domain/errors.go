package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DomainError represents a domain error with a structured error code.
//
// Codes have the form SH-<AREA>-<NNNN>; the first three digits of the
// numeric part mirror the HTTP status class the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "SH-CONF-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
// Two DomainErrors match when their codes are equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Area returns the AREA component of the code ("CONF", "PRXY", ...).
func (e *DomainError) Area() string {
	parts := strings.Split(e.Code, "-")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// HTTPStatus returns the HTTP status the error maps to, derived from the
// first three digits of the code's numeric part.
func (e *DomainError) HTTPStatus() int {
	parts := strings.Split(e.Code, "-")
	if len(parts) != 3 || len(parts[2]) < 3 {
		return 500
	}
	status, err := strconv.Atoi(parts[2][:3])
	if err != nil || status < 400 || status > 599 {
		return 500
	}
	return status
}

// HTTPStatusOf returns the HTTP status for err; errors that are not
// DomainErrors map to 500.
func HTTPStatusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus()
	}
	return 500
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsConfigError reports whether err belongs to the configuration family.
// Configuration errors are fatal at startup.
func IsConfigError(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Area() == "CONF"
}

// IsProxyError reports whether err belongs to the upstream forwarding family.
func IsProxyError(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Area() == "PRXY"
}

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrMalformedDescriptor indicates a route value matches neither the
	// directory nor the proxy shape, or matches both.
	ErrMalformedDescriptor = NewDomainError("SH-CONF-4000", "malformed route descriptor")

	// ErrEmptyPrefix indicates a route key is the empty string.
	ErrEmptyPrefix = NewDomainError("SH-CONF-4001", "route prefix must not be empty")

	// ErrInvalidProxyTarget indicates proxy_to is not an absolute http(s) URL.
	ErrInvalidProxyTarget = NewDomainError("SH-CONF-4002", "invalid proxy target")

	// ErrSourceUnreadable indicates the route source could not be read.
	ErrSourceUnreadable = NewDomainError("SH-CONF-4003", "route source unreadable")

	// ErrSourceUnparsable indicates the route source could not be decoded.
	ErrSourceUnparsable = NewDomainError("SH-CONF-4004", "route source unparsable")

	// ErrInvalidSettings indicates the server settings failed validation.
	ErrInvalidSettings = NewDomainError("SH-CONF-4005", "invalid server settings")

	// ErrDuplicatePrefix indicates the same prefix appears twice in a source.
	ErrDuplicatePrefix = NewDomainError("SH-CONF-4006", "duplicate route prefix")
)

// ============================================================================
// Routing Errors (ROUT)
// ============================================================================

var (
	// ErrNoMatchingRule indicates no rule prefix matches the request path.
	ErrNoMatchingRule = NewDomainError("SH-ROUT-4040", "no route matches the request path")

	// ErrBadPath indicates the request path could not be decoded.
	ErrBadPath = NewDomainError("SH-ROUT-4000", "malformed request path")
)

// ============================================================================
// File Errors (FILE)
// ============================================================================

var (
	// ErrFileNotFound indicates nothing servable exists at the resolved path.
	ErrFileNotFound = NewDomainError("SH-FILE-4040", "file not found")

	// ErrFileForbidden indicates the resolved path exists but the process
	// may not read it.
	ErrFileForbidden = NewDomainError("SH-FILE-4030", "access denied")
)

// ============================================================================
// Proxy Errors (PRXY)
// ============================================================================

var (
	// ErrUpstreamFailed indicates the outbound call failed (refused, DNS, reset).
	ErrUpstreamFailed = NewDomainError("SH-PRXY-5020", "upstream request failed")

	// ErrUpstreamTimeout indicates the origin did not answer in time.
	ErrUpstreamTimeout = NewDomainError("SH-PRXY-5040", "upstream request timed out")

	// ErrInvalidTargetURL indicates a reconstructed target URL did not parse.
	ErrInvalidTargetURL = NewDomainError("SH-PRXY-5021", "invalid upstream url")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("SH-SYS-5000", "internal server error")

	// ErrMethodNotAllowed indicates the method is not served by the matched rule.
	ErrMethodNotAllowed = NewDomainError("SH-SYS-4050", "method not allowed")

	// ErrUnauthorized indicates a missing or wrong admin token.
	ErrUnauthorized = NewDomainError("SH-SYS-4010", "admin token required")

	// ErrNotReady indicates the server is starting or draining.
	ErrNotReady = NewDomainError("SH-SYS-5030", "server not ready")
)
