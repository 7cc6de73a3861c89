package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")

	// ErrDataQuality marks ingestion rows that are skipped rather than failed.
	ErrDataQuality = errors.New("data quality issue")

	ErrIngestion = errors.New("ingestion failed")

	ErrUnauthorized = errors.New("unauthorized")

	ErrConflict = errors.New("resource conflict")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WrapDatabaseError keeps the driver error in the chain; Message alone is safe to show clients.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

// NewDataQualityError describes why an ingestion row was skipped.
func NewDataQualityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataQuality, fmt.Sprintf(format, args...))
}
