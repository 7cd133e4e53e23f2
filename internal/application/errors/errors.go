// Package apperrors defines application-level error types.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError indicates a flag or filter validation failed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// ScanError indicates the scanning engine could not produce a report for a target.
type ScanError struct {
	Cause   error
	Target  string
	Message string
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scan failed for %s: %s: %v", e.Target, e.Message, e.Cause)
	}
	return fmt.Sprintf("scan failed for %s: %s", e.Target, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new scan error.
func NewScanError(target, message string, cause error) *ScanError {
	return &ScanError{
		Target:  target,
		Message: message,
		Cause:   cause,
	}
}

// ConfigurationError indicates system config or setup issue.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// ExitError carries a process exit code without being a failure of the tool itself.
// A run that found incompatible addins returns ExitError{Code: 1}.
type ExitError struct {
	Message string
	Code    int
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

// NewExitError creates a new exit error.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// ExitCode maps an error returned by a command to the process exit code:
// nil is 0, an ExitError carries its own code, anything else is -1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
