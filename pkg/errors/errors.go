// Package errors defines the error taxonomy of the token lifecycle service.
// Every failure returned across a package boundary is an AppError carrying a stable Code,
// so callers can branch with errors.Is against the exported sentinels.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/turtacn/tokenlife/pkg/constants"
)

// Code identifies an error kind.
type Code string

const (
	// CodeValidation marks malformed caller input (missing claims, empty token, mixed key modes)
	CodeValidation Code = "validation_error"
	// CodeMalformed marks a token that is not a well-formed signed structure
	CodeMalformed Code = "malformed_token"
	// CodeSignature marks a token whose signature does not verify under the configured key
	CodeSignature Code = "invalid_signature"
	// CodeExpired marks a token decoded successfully but past its expiry
	CodeExpired Code = "token_expired"
	// CodeRevoked marks a valid token listed in the revocation ledger
	CodeRevoked Code = "token_revoked"
	// CodeStore marks a failure of the underlying key-value store
	CodeStore Code = "store_error"
	// CodeConfig marks invalid or unusable configuration
	CodeConfig Code = "config_error"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// AppError represents a structured error with additional metadata
type AppError interface {
	error

	// Code returns the error kind
	Code() Code

	// Description returns a human-readable description of the kind
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) AppError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) AppError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

type baseError struct {
	code        Code
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() Code          { return e.code }
func (e *baseError) Description() string { return e.description }
func (e *baseError) Unwrap() error       { return e.cause }

func (e *baseError) WithCause(cause error) AppError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// Is reports whether target is an AppError of the same kind.
func (e *baseError) Is(target error) bool {
	t, ok := target.(AppError)
	if !ok {
		return false
	}
	return t.Code() == e.code
}

// NewError creates a new AppError with the specified kind, description and message
func NewError(code Code, description, message string) AppError {
	return &baseError{
		code:        code,
		description: description,
		message:     message,
	}
}

// ================================================================================
// Sentinels (for errors.Is)
// ================================================================================

var (
	ErrValidation = NewError(CodeValidation, "invalid input", "")
	ErrMalformed  = NewError(CodeMalformed, "token is malformed", "")
	ErrSignature  = NewError(CodeSignature, "token signature is invalid", "")
	ErrExpired    = NewError(CodeExpired, "token has expired", "")
	ErrRevoked    = NewError(CodeRevoked, constants.RevokedMessage, "")
	ErrStore      = NewError(CodeStore, "store operation failed", "")
	ErrConfig     = NewError(CodeConfig, "invalid configuration", "")
)

// ================================================================================
// Constructors
// ================================================================================

// Validation creates a validation error for bad caller input.
func Validation(message string) AppError {
	return NewError(CodeValidation, ErrValidation.Description(), message)
}

// Malformed creates a malformed-token error.
func Malformed(cause error) AppError {
	return NewError(CodeMalformed, ErrMalformed.Description(), "").WithCause(cause)
}

// Signature creates a signature verification error.
func Signature(cause error) AppError {
	return NewError(CodeSignature, ErrSignature.Description(), "").WithCause(cause)
}

// Expired creates a token-expired error.
func Expired(cause error) AppError {
	return NewError(CodeExpired, ErrExpired.Description(), "").WithCause(cause)
}

// Revoked creates the error returned for tokens found in the revocation ledger.
// Its message is exactly constants.RevokedMessage.
func Revoked() AppError {
	return NewError(CodeRevoked, ErrRevoked.Description(), constants.RevokedMessage)
}

// Store wraps a failure of the underlying key-value store.
func Store(op string, cause error) AppError {
	return NewError(CodeStore, ErrStore.Description(), fmt.Sprintf("store %s failed", op)).
		WithCause(cause).
		WithMetadata("op", op)
}

// Config creates a configuration error.
func Config(message string) AppError {
	return NewError(CodeConfig, ErrConfig.Description(), message)
}

// CodeOf returns the Code of the first AppError in err's chain, or "" when there is none.
func CodeOf(err error) Code {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code()
	}
	return ""
}

// Is is a convenience alias for the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a convenience alias for the standard library errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
