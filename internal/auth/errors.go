package auth

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the authorization flow. Every kind maps to a
// fixed process exit code that the calling email client interprets.
type Kind int

const (
	KindUsage Kind = iota + 1
	KindTimeout
	KindPermissionDenied
	KindNetwork
	KindHTTPStatus
	KindTokenUnavailable
	KindStore
	KindInterrupted
)

// Exit codes reported by the helper.
const (
	ExitSuccess          = 0
	ExitUsage            = 1
	ExitTimeout          = 2
	ExitPermissionDenied = 3
	ExitNetwork          = 4
	ExitHTTPStatus       = 5
	ExitTokenUnavailable = 6
	ExitStore            = 7
	ExitInterrupted      = 130
)

var kindNames = map[Kind]string{
	KindUsage:            "usage_error",
	KindTimeout:          "authentication_timeout",
	KindPermissionDenied: "permission_not_granted",
	KindNetwork:          "network_error",
	KindHTTPStatus:       "http_status_error",
	KindTokenUnavailable: "access_token_unavailable",
	KindStore:            "token_store_error",
	KindInterrupted:      "interrupted",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode returns the process exit code for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return ExitUsage
	case KindTimeout:
		return ExitTimeout
	case KindPermissionDenied:
		return ExitPermissionDenied
	case KindNetwork:
		return ExitNetwork
	case KindHTTPStatus:
		return ExitHTTPStatus
	case KindTokenUnavailable:
		return ExitTokenUnavailable
	case KindStore:
		return ExitStore
	case KindInterrupted:
		return ExitInterrupted
	default:
		return ExitUsage
	}
}

// Error is a classified failure of the helper.
type Error struct {
	// Kind selects the exit code.
	Kind Kind
	// Message is the single line shown to the user.
	Message string
	// StatusCode is set for KindHTTPStatus.
	StatusCode int
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the user-facing line, including the cause when present.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind with an empty message, so the
// sentinels below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrUsage            = &Error{Kind: KindUsage}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrHTTPStatus       = &Error{Kind: KindHTTPStatus}
	ErrTokenUnavailable = &Error{Kind: KindTokenUnavailable}
	ErrStore            = &Error{Kind: KindStore}
	ErrInterrupted      = &Error{Kind: KindInterrupted}
)

// NewError creates a classified error.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Usagef creates a KindUsage error with a formatted message.
func Usagef(format string, args ...any) *Error {
	return &Error{Kind: KindUsage, Message: fmt.Sprintf(format, args...)}
}

// NewHTTPStatusError records a non-success response from the provider.
func NewHTTPStatusError(operation string, statusCode int, body string) *Error {
	msg := fmt.Sprintf("%s failed with status %d", operation, statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &Error{Kind: KindHTTPStatus, Message: msg, StatusCode: statusCode}
}

// ExitCode maps err to the helper's exit code. Nil maps to success and
// unclassified errors to a usage error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind.ExitCode()
	}
	return ExitUsage
}
