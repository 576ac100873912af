package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dashboard domain. Callers check them with errors.Is.
var (
	ErrInvalidIdentity   = errors.New("identity must be a non-empty string")
	ErrEmptyCredentials  = errors.New("email and password are required")
	ErrMissingDateRange  = errors.New("start and end dates are required")
	ErrInvalidDateRange  = errors.New("start date must not be after end date")
	ErrMalformedDate     = errors.New("date is not in YYYY-MM-DD format")
	ErrRefreshInProgress = errors.New("a refresh is already in progress")
	ErrNotLoggedIn       = errors.New("no active session")
)

// ValidationError is a user input problem. It is reported to the user right away
// and never changes state.
type ValidationError struct {
	Err     error
	Message string
}

// NewValidationError wraps a sentinel with the message shown to the user.
func NewValidationError(err error, message string) *ValidationError {
	return &ValidationError{Err: err, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DataSourceError is a failed data fetch. Previously displayed KPIs and chart stay as they were.
type DataSourceError struct {
	Source string
	Err    error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q: %v", e.Source, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDataSource reports whether err is (or wraps) a DataSourceError.
func IsDataSource(err error) bool {
	var de *DataSourceError
	return errors.As(err, &de)
}
