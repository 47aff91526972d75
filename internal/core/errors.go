// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("state conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUnauthorized       = errors.New("not authorized for this resource")
)

// Token failures are all authentication failures.
var (
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrUnauthenticated)
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", ErrUnauthenticated)
	ErrTokenRevoked = fmt.Errorf("token revoked: %w", ErrUnauthenticated)
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicate          = "DUPLICATE"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeConflict           = "CONFLICT"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenRevoked       = "TOKEN_REVOKED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError carries an HTTP status and public message for an underlying error.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
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

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, CodeBadRequest)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		CodeNotFound,
	)
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusBadRequest, CodeConflict)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, CodeUnauthorized)
}

// ValidationError collects rule violations in the order they were checked.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func (e *ValidationError) Add(message string) {
	e.Messages = append(e.Messages, message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}

// OrNil returns the error only if at least one rule was violated.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ValidationMessages flattens validator output or a ValidationError into
// human readable messages.
func ValidationMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	case "dive":
		return fmt.Sprintf("%s contains an invalid entry", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// classify maps an error to its public status, code and message.
func classify(err error) (int, string, string, []string) {
	if appErr, ok := IsAppError(err); ok {
		return appErr.StatusCode, appErr.Code, appErr.Message, nil
	}

	var ve *ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, CodeValidation, "validation failed", ve.Messages
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest, CodeValidation, "validation failed", ValidationMessages(err)
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusBadRequest, CodeDuplicate, "resource already exists", nil
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest, CodeInvalidCredentials, "invalid credentials", nil
	case errors.Is(err, ErrConflict):
		return http.StatusBadRequest, CodeConflict, "state conflict", nil
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, CodeValidation, "invalid input", nil
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, CodeTokenExpired, "token has expired", nil
	case errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized, CodeTokenRevoked, "token has been revoked", nil
	case errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized, CodeTokenInvalid, "invalid token", nil
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, "authentication required", nil
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized, "not authorized to perform this action", nil
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "resource not found", nil
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error", nil
	}
}
