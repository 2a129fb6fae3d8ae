// Package apperr defines the error kinds surfaced by the HTTP API and their
// status code mapping.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindDuplicate           Kind = "duplicate_error"
	KindNotFound            Kind = "not_found"
	KindUnauthorized        Kind = "unauthorized"
	KindInvalidAmount       Kind = "invalid_amount"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindOtpExpired          Kind = "otp_expired"
	KindInvalidOtp          Kind = "invalid_otp"
	KindInternal            Kind = "internal"
)

// Error is a classified application error. Data carries optional details
// rendered alongside the error envelope.
type Error struct {
	Kind    Kind
	Message string
	Data    any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind to its HTTP status code.
func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindDuplicate, KindInvalidAmount, KindInsufficientBalance, KindOtpExpired, KindInvalidOtp:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func Duplicate(message string) *Error     { return New(KindDuplicate, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Unauthorized(message string) *Error  { return New(KindUnauthorized, message) }
func InvalidAmount(message string) *Error { return New(KindInvalidAmount, message) }
func OtpExpired(message string) *Error    { return New(KindOtpExpired, message) }
func InvalidOtp(message string) *Error    { return New(KindInvalidOtp, message) }

// Internal wraps an unclassified failure. The message is what clients see.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// InsufficientBalance reports a rejected debit together with its details.
func InsufficientBalance(data any) *Error {
	return &Error{Kind: KindInsufficientBalance, Message: "Insufficient balance", Data: data}
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
