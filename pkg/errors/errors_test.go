package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeStorage, "write failed"),
			expected: "[STORAGE_ERROR] write failed",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeRunStore, "insert failed", errors.New("connection refused")),
			expected: "[RUNSTORE_ERROR] insert failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeSerialization, "encode failed", underlying)

	unwrapped := err.Unwrap()
	assert.Equal(t, underlying, unwrapped)
}

func TestAppError_Is(t *testing.T) {
	err1 := New(CodeStorage, "error 1")
	err2 := New(CodeStorage, "error 2")
	err3 := New(CodeRunStore, "error 3")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestIsStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "storage error",
			err:      ErrStorage,
			expected: true,
		},
		{
			name:     "wrapped storage error",
			err:      Wrap(CodeStorage, "write failed", errors.New("disk full")),
			expected: true,
		},
		{
			name:     "other error",
			err:      ErrRunStore,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsStorageError(tt.err))
		})
	}
}

func TestIsRunStoreError(t *testing.T) {
	assert.True(t, IsRunStoreError(ErrRunStore))
	assert.False(t, IsRunStoreError(ErrStorage))
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, IsInvalidInput(ErrInvalidInput))
	assert.False(t, IsInvalidInput(ErrStorage))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeStorage, "write failed"),
			expected: CodeStorage,
		},
		{
			name:     "wrapped app error",
			err:      Wrap(CodeRunStore, "insert", errors.New("inner")),
			expected: CodeRunStore,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: CodeUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCode(tt.err))
		})
	}
}

func TestGetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "app error",
			err:      New(CodeStorage, "disk full"),
			expected: "disk full",
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: "standard error",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorMessage(tt.err))
		})
	}
}
