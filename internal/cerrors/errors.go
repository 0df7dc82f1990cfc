// Package cerrors defines the typed errors used across the chunking and
// normalization core. Every kind here is recoverable at some level of
// the pipeline except Timeout, which aborts the current file.
package cerrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType names the failure class for budget accounting and diagnostics.
type ErrorType string

const (
	ErrorTypeUnknownLanguage ErrorType = "unknown_language"
	ErrorTypeParse           ErrorType = "parse"
	ErrorTypeQueryCompile    ErrorType = "query_compile"
	ErrorTypeQueryExecute    ErrorType = "query_execute"
	ErrorTypeAdapter         ErrorType = "adapter"
	ErrorTypeStrategy        ErrorType = "strategy"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypeInternal        ErrorType = "internal"
)

// PipelineError carries the failure class plus file and stage context.
type PipelineError struct {
	Type        ErrorType
	FilePath    string
	Stage       string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// New creates a PipelineError of the given type.
func New(t ErrorType, stage string, err error) *PipelineError {
	return &PipelineError{
		Type:        t,
		Stage:       stage,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: t != ErrorTypeTimeout,
	}
}

// WithFile attaches the file path being processed.
func (e *PipelineError) WithFile(path string) *PipelineError {
	e.FilePath = path
	return e
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s error in %s stage for %s: %v", e.Type, e.Stage, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s error in %s stage: %v", e.Type, e.Stage, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the pipeline may continue past this error.
func (e *PipelineError) IsRecoverable() bool {
	return e.Recoverable
}

// TypeOf extracts the ErrorType from err, or ErrorTypeInternal when err
// is not a PipelineError.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeInternal
}

// IsTimeout reports whether err is a stage timeout.
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}
