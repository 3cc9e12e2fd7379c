package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
}

func NewNotFoundError(entity string) error {
	return &NotFoundError{Entity: entity}
}

func (err NotFoundError) Error() string {
	return err.Entity + " not found"
}

// ForbiddenError reports a failed capability or group binding check.
type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) error {
	return &ForbiddenError{Reason: reason}
}

func (err ForbiddenError) Error() string {
	if err.Reason == "" {
		return "permission denied"
	}
	return err.Reason
}

// ConflictError reports a unique constraint violation.
type ConflictError struct {
	Field   string
	Message string
}

func NewConflictError(field, msg string) error {
	return &ConflictError{Field: field, Message: msg}
}

func (err ConflictError) Error() string {
	return err.Message
}

// TransactionError reports a storage fault inside a multi-step atomic operation.
// The transaction has been rolled back by the time it is returned.
type TransactionError struct {
	Op  string
	Err error
}

func NewTransactionError(op string, err error) error {
	return &TransactionError{Op: op, Err: err}
}

func (err TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", err.Op, err.Err)
}

func (err TransactionError) Unwrap() error { return err.Err }

// IsNotFound reports whether the cause of err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// UnauthorizedError reports missing or invalid credentials.
type UnauthorizedError struct {
	Reason string
}

func (err UnauthorizedError) Error() string {
	return err.Reason
}

var ErrInvalidCredentials = &UnauthorizedError{Reason: "invalid credentials"}
