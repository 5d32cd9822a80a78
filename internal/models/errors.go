package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the error_code field of the response envelope.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeSelfFollow          = "SELF_FOLLOW"
	CodeAlreadyFollowed     = "ALREADY_FOLLOWED"
	CodeNotFollowing        = "NOT_FOLLOWING"
	CodeAlreadyLiked        = "ALREADY_LIKED"
	CodeNotLiked            = "NOT_LIKED"
	CodeVerificationExpired = "VERIFICATION_CODE_EXPIRED"
	CodeAccountDeactivated  = "ACCOUNT_DEACTIVATED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeRateLimited         = "RATE_LIMITED"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields holds per-field validation messages, keyed by JSON field name.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUserNotFoundError(username string) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("User %q not found", username),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError reports validation failures for individual request fields.
func NewFieldValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewBusinessError is a 400-class error carrying a symbolic code, e.g. ALREADY_LIKED.
func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to the HTTP status it is rendered with.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe.Code
		}
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeSelfFollow, CodeAlreadyFollowed, CodeNotFollowing,
		CodeAlreadyLiked, CodeNotLiked, CodeVerificationExpired:
		return fiber.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials:
		return fiber.StatusUnauthorized
	case CodeForbidden, CodeAccountDeactivated:
		return fiber.StatusForbidden
	case CodeNotFound, CodeUserNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	case CodeRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
