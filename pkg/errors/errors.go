// Package errors defines common error types for the LLP service.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown             = "UNKNOWN_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeResourceAcquisition = "RESOURCE_ACQUISITION_ERROR"
	CodeSerialization       = "SERIALIZATION_ERROR"
	CodeStorage             = "STORAGE_ERROR"
	CodeRunStore            = "RUNSTORE_ERROR"
	CodeTimeout             = "TIMEOUT_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConfigError         = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidInput        = New(CodeInvalidInput, "invalid input")
	ErrResourceAcquisition = New(CodeResourceAcquisition, "resource acquisition error")
	ErrSerialization       = New(CodeSerialization, "serialization error")
	ErrStorage             = New(CodeStorage, "storage error")
	ErrRunStore            = New(CodeRunStore, "run store error")
	ErrTimeout             = New(CodeTimeout, "operation timeout")
	ErrNotFound            = New(CodeNotFound, "resource not found")
	ErrConfigError         = New(CodeConfigError, "configuration error")
)

// IsStorageError checks if the error is a storage error.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRunStoreError checks if the error is a run store error.
func IsRunStoreError(err error) bool {
	return errors.Is(err, ErrRunStore)
}

// IsInvalidInput checks if the error is an invalid-input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
