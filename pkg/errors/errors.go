// Package errors provides structured error handling for multisecret.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied
)

// MultisecretError is the structured error type for multisecret.
type MultisecretError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *MultisecretError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *MultisecretError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for MultisecretError. Two errors match when their codes match.
func (e *MultisecretError) Is(target error) bool {
	var t *MultisecretError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &MultisecretError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &MultisecretError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &MultisecretError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrPermission = &MultisecretError{
		Code:     "PERMISSION_DENIED",
		Message:  "permission denied",
		ExitCode: ExitPermission,
	}

	// Configuration errors raised while constructing a dealer.
	ErrInvalidModulus = &MultisecretError{
		Code:     "INVALID_MODULUS",
		Message:  "invalid prime modulus",
		ExitCode: ExitInput,
	}

	ErrTooFewParticipants = &MultisecretError{
		Code:     "TOO_FEW_PARTICIPANTS",
		Message:  "at least 2 participants are required",
		ExitCode: ExitInput,
	}

	ErrInvalidAccessGroup = &MultisecretError{
		Code:     "INVALID_ACCESS_GROUP",
		Message:  "invalid access group",
		ExitCode: ExitInput,
	}

	ErrUnknownScheme = &MultisecretError{
		Code:     "UNKNOWN_SCHEME",
		Message:  "unknown sharing scheme",
		ExitCode: ExitInput,
	}

	// Computation errors.
	ErrNoInverse = &MultisecretError{
		Code:     "NO_INVERSE",
		Message:  "modular inverse does not exist",
		ExitCode: ExitGeneral,
	}

	ErrLength = &MultisecretError{
		Code:     "LENGTH_ERROR",
		Message:  "requested more bits than available",
		ExitCode: ExitGeneral,
	}

	ErrNotSplit = &MultisecretError{
		Code:     "NOT_SPLIT",
		Message:  "secrets have not been split yet",
		ExitCode: ExitGeneral,
	}

	// Reconstruction errors.
	ErrReconstruction = &MultisecretError{
		Code:     "RECONSTRUCTION_FAILED",
		Message:  "secret reconstruction failed",
		ExitCode: ExitInput,
	}

	ErrShareMismatch = &MultisecretError{
		Code:     "SHARE_MISMATCH",
		Message:  "shares do not match the access group",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &MultisecretError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitAuth,
	}

	// Config-specific errors.
	ErrConfigNotFound = &MultisecretError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &MultisecretError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &MultisecretError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	// Bundle-specific errors.
	ErrBundleNotFound = &MultisecretError{
		Code:     "BUNDLE_NOT_FOUND",
		Message:  "share bundle not found",
		ExitCode: ExitNotFound,
	}

	ErrBundleCorrupted = &MultisecretError{
		Code:     "BUNDLE_CORRUPTED",
		Message:  "share bundle is corrupted - checksum mismatch",
		ExitCode: ExitInput,
	}

	ErrSessionMismatch = &MultisecretError{
		Code:     "SESSION_MISMATCH",
		Message:  "share file belongs to a different sharing session",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &MultisecretError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}

	ErrUnsupportedVersion = &MultisecretError{
		Code:     "UNSUPPORTED_VERSION",
		Message:  "unsupported file version",
		ExitCode: ExitInput,
	}
)

// New creates a new MultisecretError with the given code and message.
func New(code, message string) *MultisecretError {
	return &MultisecretError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var me *MultisecretError
	if errors.As(err, &me) {
		return &MultisecretError{
			Code:       me.Code,
			Message:    fmt.Sprintf("%s: %s", msg, me.Message),
			Details:    me.Details,
			Suggestion: me.Suggestion,
			Cause:      err,
			ExitCode:   me.ExitCode,
		}
	}

	return &MultisecretError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var me *MultisecretError
	if errors.As(err, &me) {
		return &MultisecretError{
			Code:       me.Code,
			Message:    me.Message,
			Details:    details,
			Suggestion: me.Suggestion,
			Cause:      me.Cause,
			ExitCode:   me.ExitCode,
		}
	}

	return &MultisecretError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var me *MultisecretError
	if errors.As(err, &me) {
		return &MultisecretError{
			Code:       me.Code,
			Message:    me.Message,
			Details:    me.Details,
			Suggestion: suggestion,
			Cause:      me.Cause,
			ExitCode:   me.ExitCode,
		}
	}

	return &MultisecretError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var me *MultisecretError
	if errors.As(err, &me) {
		return me.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var me *MultisecretError
	if errors.As(err, &me) {
		return me.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
