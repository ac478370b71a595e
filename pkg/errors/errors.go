package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the session lifecycle. Messages are part of the HTTP contract.
var (
	ErrEmailRequired     = New("EMAIL_REQUIRED", http.StatusBadRequest, "Email is required")
	ErrPasswordRequired  = New("PASSWORD_REQUIRED", http.StatusBadRequest, "Password is required")
	ErrTokenRequired     = New("TOKEN_REQUIRED", http.StatusBadRequest, "Token is required")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUserExists        = New("USER_EXISTS", http.StatusBadRequest, "User already exists")
	ErrUserDoesNotExist  = New("USER_DOES_NOT_EXIST", http.StatusBadRequest, "User does not exist")
	ErrPasswordIncorrect = New("PASSWORD_INCORRECT", http.StatusBadRequest, "Password is incorrect")
	ErrInvalidToken      = New("INVALID_TOKEN", http.StatusUnauthorized, "Invalid token")
	ErrTokenInactive     = New("TOKEN_INACTIVE", http.StatusUnauthorized, "Invalid token")
	ErrUserNotFound      = New("USER_NOT_FOUND", http.StatusNotFound, "User not found")
	ErrLogout            = New("LOGOUT_FAILED", http.StatusBadRequest, "Error logging out")
	ErrTooManyRequests   = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "Internal server error")
)

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == target.Code
	}
	return false
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// WithStatus returns a copy of the error answering with a different HTTP status.
func WithStatus(err *Error, status int) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Status = status
	return &clone
}
