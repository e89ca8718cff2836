package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCategory classifies boundary-visible failures.
type ErrorCategory string

const (
	ErrCatInvalidQuery    ErrorCategory = "invalid_query"
	ErrCatAllAgentsFailed ErrorCategory = "all_agents_failed"
	ErrCatUnavailable     ErrorCategory = "service_unavailable"
	ErrCatRateLimit       ErrorCategory = "rate_limit"
	ErrCatUnknown         ErrorCategory = "unknown"
)

// ErrAllAgentsFailed is the terminal failure of a request: classification
// degraded and every dispatched agent failed.
var ErrAllAgentsFailed = errors.New("all agents failed")

// AppError wraps an error with a category and HTTP status code.
type AppError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewInvalidQueryError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatInvalidQuery,
		Message:    msg,
		StatusCode: http.StatusBadRequest,
	}
}

func NewAllAgentsFailedError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatAllAgentsFailed,
		Message:    msg,
		StatusCode: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        ErrAllAgentsFailed,
	}
}

func NewUnavailableError(msg string, err error) *AppError {
	return &AppError{
		Category:   ErrCatUnavailable,
		Message:    msg,
		StatusCode: http.StatusServiceUnavailable,
		Retryable:  true,
		Err:        err,
	}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{
		Category:   ErrCatUnknown,
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsInvalidQuery reports whether err was caused by rejected input.
func IsInvalidQuery(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == ErrCatInvalidQuery
}
