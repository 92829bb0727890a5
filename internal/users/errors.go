package users

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stores and services; match with errors.Is
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

// User error types
const (
	UserErrorTypeNotFound      = "not_found"
	UserErrorTypeAlreadyExists = "already_exists"
)

// UserError represents errors related to user record operations
type UserError struct {
	Type    string
	UserID  int64
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("user error [%s] for user %d: %s (caused by: %v)", e.Type, e.UserID, e.Message, e.Cause)
	}
	return fmt.Sprintf("user error [%s] for user %d: %s", e.Type, e.UserID, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// NewUserNotFoundError creates an error for when a user record does not exist
func NewUserNotFoundError(userID int64) *UserError {
	return &UserError{
		Type:    UserErrorTypeNotFound,
		UserID:  userID,
		Message: "user not found",
		Cause:   ErrUserNotFound,
	}
}

// NewEmailExistsError creates an error for a duplicate email
func NewEmailExistsError(userID int64, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeAlreadyExists,
		UserID:  userID,
		Message: "email is already registered to another user",
		Cause:   errors.Join(ErrEmailExists, cause),
	}
}

// ValidationError represents errors in request validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
