package domain

import "errors"

// Domain-specific errors for relay validation and lookup.
var (
	// Task errors
	ErrTaskNotFound = errors.New("task not found")

	// Validation errors
	ErrEmptyRequest   = errors.New("request text is required")
	ErrUnknownHandler = errors.New("unknown handler tag")
	ErrInvalidTaskID  = errors.New("invalid task id")
	ErrInvalidStatus  = errors.New("invalid task status")
)
