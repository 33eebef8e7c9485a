// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the client sent a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyInput indicates the chat message was empty.
	ErrEmptyInput = errors.New("empty message")

	// ErrEmptyKnowledge indicates no source table yielded any data.
	ErrEmptyKnowledge = errors.New("knowledge base is empty")

	// ErrServiceUnavailable indicates the chatbot cannot answer yet.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// LoadError records that one table could not be fetched or parsed from a source.
// It is logged and the load continues with the remaining tables.
type LoadError struct {
	Table  string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("load %s from %s: %v", e.Table, e.Source, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new load error.
func NewLoadError(table, source string, err error) *LoadError {
	return &LoadError{
		Table:  table,
		Source: source,
		Err:    err,
	}
}

// EmptyKnowledgeError is returned when a load produced no usable table.
// It matches ErrEmptyKnowledge with errors.Is.
type EmptyKnowledgeError struct {
	Tables   int
	Failures []*LoadError
}

func (e *EmptyKnowledgeError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("initialization failed: none of %d tables yielded data", e.Tables)
	}
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Table)
	}
	return fmt.Sprintf("initialization failed: none of %d tables yielded data (failed: %s)",
		e.Tables, strings.Join(names, ", "))
}

// Is reports whether target is ErrEmptyKnowledge.
func (e *EmptyKnowledgeError) Is(target error) bool {
	return target == ErrEmptyKnowledge
}
