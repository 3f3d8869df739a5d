package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// CodeNotFound indicates a lookup by key matched no record.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeValidation indicates a record or request was rejected before it
	// reached the database (missing field, unknown collection, bad key).
	CodeValidation ErrorCode = "VALIDATION_FAILURE"

	// CodeTransactionAborted indicates a transaction failed and was rolled
	// back. None of its writes are visible.
	CodeTransactionAborted ErrorCode = "TRANSACTION_ABORTED"

	// CodeMigration indicates a schema step could not be applied.
	CodeMigration ErrorCode = "SCHEMA_MIGRATION_FAILURE"
)

// Sentinels matched by errors.Is against any *Error with the same code.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failure")
	ErrTransactionAborted = errors.New("transaction aborted")
	ErrMigration          = errors.New("schema migration failure")
)

var sentinels = map[ErrorCode]error{
	CodeNotFound:           ErrNotFound,
	CodeValidation:         ErrValidation,
	CodeTransactionAborted: ErrTransactionAborted,
	CodeMigration:          ErrMigration,
}

// Error is the typed failure returned by the store and the repositories.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Op names the operation that failed, e.g. "get" or "migrate v3".
	Op string

	// Collection is the collection involved, if any.
	Collection Collection

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Collection != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Op, e.Collection, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinel for the error's code.
func (e *Error) Is(target error) bool {
	return sentinels[e.Code] == target
}

// NotFound creates a CodeNotFound error.
func NotFound(op string, c Collection, key Key) *Error {
	return &Error{
		Code:       CodeNotFound,
		Op:         op,
		Collection: c,
		Message:    fmt.Sprintf("no record with key %v", []string(key)),
	}
}

// Validation creates a CodeValidation error.
func Validation(op string, c Collection, format string, args ...any) *Error {
	return &Error{
		Code:       CodeValidation,
		Op:         op,
		Collection: c,
		Message:    fmt.Sprintf(format, args...),
	}
}

// IsNotFound reports whether err or any error it wraps is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err or any error it wraps is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAborted reports whether err comes from a rolled-back transaction.
func IsAborted(err error) bool {
	return errors.Is(err, ErrTransactionAborted)
}

// IsMigration reports whether err comes from a failed schema step.
func IsMigration(err error) bool {
	return errors.Is(err, ErrMigration)
}
