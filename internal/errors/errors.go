// Package errors defines the stable error code system for toth.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

// Error codes. Stable public contract.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"

	// Input and configuration
	EValidation    Code = "E_VALIDATION"
	EInvalidConfig Code = "E_INVALID_CONFIG"
	ENoRepo        Code = "E_NO_REPO"
	EPersistFailed Code = "E_PERSIST_FAILED"

	// External tools
	EToolMissing       Code = "E_TOOL_MISSING"
	EExternalCommand   Code = "E_EXTERNAL_COMMAND"
	EPartialPipeline   Code = "E_PARTIAL_PIPELINE"
	EDvcMockFallback   Code = "E_DVC_MOCK_FALLBACK"
	EToolVersionTooLow Code = "E_TOOL_VERSION_TOO_LOW"

	// Decision log
	EDecisionLogExists   Code = "E_DECISION_LOG_EXISTS"
	EDecisionLogNotFound Code = "E_DECISION_LOG_NOT_FOUND"
	EDecisionLogCorrupt  Code = "E_DECISION_LOG_CORRUPT"
)

// TothError is the standard error type for toth errors.
type TothError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *TothError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TothError) Unwrap() error {
	return e.Cause
}

// New creates a new TothError with the given code and message.
func New(code Code, msg string) error {
	return &TothError{Code: code, Msg: msg}
}

// NewWithDetails creates a new TothError with code, message, and details.
// Details map is copied (nil if empty).
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &TothError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new TothError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &TothError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new TothError wrapping an underlying error with details.
// Details map is copied (nil if empty).
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &TothError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a TothError.
func GetCode(err error) Code {
	var te *TothError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// AsTothError returns (*TothError, true) if err is or wraps a TothError.
func AsTothError(err error) (*TothError, bool) {
	var te *TothError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsFatal reports whether an error of this code must stop a tracking chain
// regardless of the configured tool-failure policy. Local input problems are
// fatal; external tool results are not.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case EToolMissing, EExternalCommand, EDvcMockFallback, EToolVersionTooLow:
		return false
	}
	return err != nil
}

// copyDetails returns a copy of the details map, or nil if empty/nil.
func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for E_USAGE, 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	<key>: <value>   (details, sorted by key)
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var te *TothError
	if !errors.As(err, &te) {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", te.Code)
	fmt.Fprintln(w, te.Msg)

	keys := make([]string, 0, len(te.Details))
	for k := range te.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, te.Details[k])
	}
}
