package domain

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeStaleAccount       = "STALE_ACCOUNT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// HasCode reports whether err, or anything it wraps, is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// AsAppError unwraps err to an AppError, if it contains one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Standard domain error constructors.

func ErrInvalidArgument(msg string) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: msg, Status: 400}
}

func ErrInsufficientFunds(currency Currency, balance, requested int64) *AppError {
	return &AppError{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("insufficient %s: balance %d, requested %d", currency, balance, requested),
		Status:  409,
	}
}

func ErrPersistenceFailure(cause error) *AppError {
	return &AppError{Code: CodePersistenceFailure, Message: "balance could not be made durable", Status: 503, Cause: cause}
}

func ErrStaleAccount(playerID string) *AppError {
	return &AppError{Code: CodeStaleAccount, Message: fmt.Sprintf("account %s was superseded by a refresh", playerID), Status: 409}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Status: 403}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}
