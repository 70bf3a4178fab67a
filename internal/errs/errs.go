package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports input rejected before or by the backend.
// Client-side validation failures never reach the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure (DNS, refused connection,
// timeout) for the named operation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError indicates a body that could not be decoded
// into the shape the operation expects.
type MalformedResponseError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf(
		"%s: malformed response (status %d): %v", e.Op, e.StatusCode, e.Err,
	)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// AuthError indicates the backend rejected the credential (401/403).
// Callers should treat the session as no longer valid.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Message)
}

// ServerError is any other non-2xx response.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server error (%d): %s", e.Op, e.StatusCode, e.Message)
}

// Validation returns a *ValidationError with the given message.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotLoggedIn is returned when an operation needs a credential and the
// session has none.
func NotLoggedIn() error {
	return &AuthError{Message: "You are not logged in. Please log in to continue."}
}

// IsAuth reports whether err (or any error in its chain) is an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Message renders err as the single line shown in an error banner.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		vErr    *ValidationError
		authErr *AuthError
		netErr  *NetworkError
		malErr  *MalformedResponseError
		srvErr  *ServerError
	)
	switch {
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.As(err, &authErr):
		if authErr.Message != "" {
			return authErr.Message
		}
		return "Your session has expired. Please log in again."
	case errors.As(err, &netErr):
		return "Could not reach the server. Check your connection and try again."
	case errors.As(err, &malErr):
		return "Invalid JSON returned from server"
	case errors.As(err, &srvErr):
		return srvErr.Message
	}

	msg := err.Error()
	if msg == "" {
		return "An error occurred"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
