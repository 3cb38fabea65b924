package domain

import "errors"

// 错误分类，调用方使用 errors.Is 判断类别
var (
	ErrValidation             = errors.New("validation error")
	ErrInvalidState           = errors.New("invalid state")
	ErrPrecondition           = errors.New("precondition failed")
	ErrDuplicateReference     = errors.New("duplicate reference")
	ErrReferenceNotFound      = errors.New("reference not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrNotFound               = errors.New("not found")
)

var (
	// DataSource errors
	ErrDataSourceNotFound  = wrap(ErrNotFound, "data source not found")
	ErrInvalidTitle        = wrap(ErrValidation, "title must be 1-200 characters")
	ErrInvalidDescription  = wrap(ErrValidation, "description must be at most 1000 characters")
	ErrInvalidOperator     = wrap(ErrValidation, "operator is required")
	ErrNotDraft            = wrap(ErrInvalidState, "data source is not in draft status")
	ErrNotConfirmed        = wrap(ErrInvalidState, "data source is not in confirmed status")
	ErrNothingToConfirm    = wrap(ErrPrecondition, "data source has no raw data to confirm")
	ErrDataSourceConflict  = wrap(ErrConcurrentModification, "data source was modified concurrently")
	ErrEmptyBatch          = wrap(ErrValidation, "at least one data id is required")
	ErrInvalidListLimit    = wrap(ErrValidation, "limit must be between 1 and 100")
	ErrInvalidListSkip     = wrap(ErrValidation, "skip must not be negative")
	ErrInvalidStatusFilter = wrap(ErrValidation, "invalid status filter")
	ErrInvalidSourceFilter = wrap(ErrValidation, "invalid source type filter")
	ErrInvalidDateRange    = wrap(ErrValidation, "start_date must not be after end_date")

	// Raw data errors
	ErrInvalidDataID          = wrap(ErrValidation, "data id is required")
	ErrInvalidDataType        = wrap(ErrValidation, "data type must be scheduled or instant")
	ErrRawDataAlreadyAttached = wrap(ErrDuplicateReference, "raw data already exists in data source")
	ErrRawDataNotAttached     = wrap(ErrReferenceNotFound, "raw data not found in data source")
	ErrRawRecordNotFound      = wrap(ErrNotFound, "raw data record not found")
	ErrRawRecordUnavailable   = wrap(ErrPrecondition, "only pending or archived raw data can be added")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
