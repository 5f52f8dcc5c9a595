package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Scheduling error codes. Everything below ErrInternal is a recoverable
// business outcome; ErrInternal is reserved for storage faults.
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrConflict
	ErrExpired
	ErrInvalidToken
	ErrAlreadyCancelled
	ErrValidation
	ErrInternal
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func Expired(message string, err error) *AppError {
	return &AppError{
		Code:    ErrExpired,
		Message: message,
		Err:     err,
	}
}

func InvalidToken(err error) *AppError {
	return &AppError{
		Code:    ErrInvalidToken,
		Message: "token does not resolve to a live hold",
		Err:     err,
	}
}

func AlreadyCancelled(err error) *AppError {
	return &AppError{
		Code:    ErrAlreadyCancelled,
		Message: "booking is already cancelled",
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool         { return Is(err, ErrNotFound) }
func IsConflict(err error) bool         { return Is(err, ErrConflict) }
func IsExpired(err error) bool          { return Is(err, ErrExpired) }
func IsInvalidToken(err error) bool     { return Is(err, ErrInvalidToken) }
func IsAlreadyCancelled(err error) bool { return Is(err, ErrAlreadyCancelled) }
func IsValidation(err error) bool       { return Is(err, ErrValidation) }
func IsInternal(err error) bool         { return Is(err, ErrInternal) }
