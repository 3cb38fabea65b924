package errors

import (
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

// Reason codes
const (
	ReasonValidationFailed       = "VALIDATION_FAILED"
	ReasonInvalidState           = "INVALID_STATE"
	ReasonPreconditionFailed     = "PRECONDITION_FAILED"
	ReasonDuplicateReference     = "DUPLICATE_REFERENCE"
	ReasonReferenceNotFound      = "REFERENCE_NOT_FOUND"
	ReasonConcurrentModification = "CONCURRENT_MODIFICATION"
	ReasonNotFound               = "NOT_FOUND"
	ReasonInternalServerError    = "INTERNAL_SERVER_ERROR"
	ReasonServiceUnavailable     = "SERVICE_UNAVAILABLE"
)

// Common errors
var (
	ErrInternalServerError = errors.InternalServer(ReasonInternalServerError, "Internal server error")
	ErrServiceUnavailable  = errors.ServiceUnavailable(ReasonServiceUnavailable, "Service unavailable")
)

// NewValidationFailed creates a 400 validation error.
func NewValidationFailed(message string) *errors.Error {
	return errors.BadRequest(ReasonValidationFailed, message)
}

// NewInvalidState creates a 409 error for an operation not allowed in the current state.
func NewInvalidState(message string) *errors.Error {
	return errors.Conflict(ReasonInvalidState, message)
}

// NewPreconditionFailed creates a 412 error.
func NewPreconditionFailed(message string) *errors.Error {
	return errors.New(http.StatusPreconditionFailed, ReasonPreconditionFailed, message)
}

// NewDuplicateReference creates a 409 error for an already attached reference.
func NewDuplicateReference(message string) *errors.Error {
	return errors.Conflict(ReasonDuplicateReference, message)
}

// NewReferenceNotFound creates a 404 error for a missing reference.
func NewReferenceNotFound(message string) *errors.Error {
	return errors.NotFound(ReasonReferenceNotFound, message)
}

// NewConcurrentModification creates a 409 error for a lost optimistic update.
func NewConcurrentModification(message string) *errors.Error {
	return errors.Conflict(ReasonConcurrentModification, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(message string) *errors.Error {
	return errors.NotFound(ReasonNotFound, message)
}

// HTTPStatus 返回错误对应的HTTP状态码，非 kratos 错误按500处理
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	se := errors.FromError(err)
	if se == nil || se.Code == 0 {
		return http.StatusInternalServerError
	}
	return int(se.Code)
}

// Reason 返回错误原因码
func Reason(err error) string {
	return errors.Reason(err)
}
