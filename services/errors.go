package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypePolicyViolation ErrorType = "policy_violation"
)

// Detail keys
const (
	DetailRemainingTime    = "remainingTime"
	DetailRemainingSeconds = "remainingSeconds"
)

// DomainError represents a structured error with additional context.
// Message is safe to return to clients.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. A target with an empty message matches any error of its type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Message == "" || e.Message == t.Message
}

// WithDetail returns a copy of the error carrying an extra detail.
// Package-level sentinels are never mutated.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	clone := *e
	clone.Details = details
	return &clone
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrUserNotFound = NewDomainError(ErrorTypeNotFound, "사용자를 찾을 수 없습니다.", nil)

	// Validation Errors
	ErrMissingCreateFields = NewDomainError(ErrorTypeValidation, "이름과 이메일을 모두 입력해주세요.", nil)
	ErrMissingReadName     = NewDomainError(ErrorTypeValidation, "조회할 사용자 이름이 필요합니다.", nil)
	ErrMissingUpdateInput  = NewDomainError(ErrorTypeValidation, "사용자 이름 또는 수정할 데이터가 없습니다.", nil)
	ErrMissingDeleteName   = NewDomainError(ErrorTypeValidation, "삭제할 사용자 이름이 필요합니다.", nil)
	ErrInvalidName         = NewDomainError(ErrorTypeValidation, "이름에 '환영'이라는 단어가 포함될 수 없습니다.", nil)
	ErrInvalidEmail        = NewDomainError(ErrorTypeValidation, "유효한 이메일 형식이 아닙니다. '@'가 포함되어야 합니다.", nil)
	ErrImmutableField      = NewDomainError(ErrorTypeValidation, "id, createdAt, version 필드는 수정할 수 없습니다.", nil)
	ErrInvalidBody         = NewDomainError(ErrorTypeValidation, "요청 본문이 올바른 JSON 형식이 아닙니다.", nil)
	ErrInvalidUserID       = NewDomainError(ErrorTypeValidation, "유효하지 않은 사용자 ID입니다.", nil)
	ErrInvalidLimit        = NewDomainError(ErrorTypeValidation, "limit은 1에서 500 사이의 숫자여야 합니다.", nil)

	// Policy Violation Errors
	ErrDeleteEmbargo = NewDomainError(ErrorTypePolicyViolation, "가입 후 1분이 지나지 않은 데이터는 삭제할 수 없습니다.", nil)

	// Conflict Errors
	ErrConcurrentUpdate = NewDomainError(ErrorTypeConflict, "다른 요청이 같은 사용자를 먼저 수정했습니다. 다시 시도해주세요.", nil)
)

// NewDeleteEmbargoError reports how long a caller must wait before deleting
func NewDeleteEmbargoError(remainingSeconds int) *DomainError {
	return ErrDeleteEmbargo.
		WithDetail(DetailRemainingSeconds, remainingSeconds).
		WithDetail(DetailRemainingTime, fmt.Sprintf("%d초 후에 삭제할 수 있습니다.", remainingSeconds))
}

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsPolicyViolationError checks if an error is a policy violation error
func IsPolicyViolationError(err error) bool {
	return GetErrorType(err) == ErrorTypePolicyViolation
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a domain error,
// or the raw error text otherwise
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps a store failure as an internal error. The underlying
// error text becomes the client message.
func WrapInternal(err error) error {
	return NewDomainError(ErrorTypeInternal, err.Error(), err)
}
