package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/piste/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation (scenario failed, record not found, invalid input)
	ExitCommandError = 2 // Command error (bad config, database cannot be opened, etc.)
)

// Error codes reported in JSON responses.
const (
	CodeNotFound   = "E_NOT_FOUND"
	CodeValidation = "E_VALIDATION"
	CodeAborted    = "E_ABORTED"
	CodeMigration  = "E_MIGRATION"
	CodeInternal   = "E_INTERNAL"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// storeExitError maps a store failure onto an exit code: rejected requests
// exit with ExitFailure, storage faults with ExitCommandError.
func storeExitError(message string, err error) *ExitError {
	switch {
	case store.IsNotFound(err), store.IsValidation(err):
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// errorCode returns the JSON error code for err.
func errorCode(err error) string {
	switch {
	case store.IsMigration(err):
		return CodeMigration
	case store.IsNotFound(err):
		return CodeNotFound
	case store.IsValidation(err):
		return CodeValidation
	case store.IsAborted(err):
		return CodeAborted
	}
	return CodeInternal
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_NOT_FOUND", "E_VALIDATION", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	if t, ok := data.(textRenderer); ok {
		return t.renderText(f.Writer)
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// textRenderer is implemented by results with a custom text layout.
type textRenderer interface {
	renderText(w io.Writer) error
}

// Fail reports err in the configured format and returns it as an ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	if f.Format == "json" {
		if encErr := f.Error(errorCode(err), message, err.Error()); encErr != nil {
			return encErr
		}
	}
	return storeExitError(message, err)
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
