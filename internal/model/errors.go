package model

import (
	"errors"
	"fmt"
)

// ErrorCategory - error class exposed to the caller; transport maps it to a status code
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryPrecheck   ErrorCategory = "precheck"
	CategoryProcessing ErrorCategory = "processing"
	CategoryWrite      ErrorCategory = "write"
)

// Error wraps a cause with its category. Pipeline stages return these instead
// of panicking/aborting implicitly, so callers can branch with errors.As.
type Error struct {
	Category ErrorCategory
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError - categorized wrapper around a cause
func NewError(cat ErrorCategory, err error) error {
	return &Error{Category: cat, Err: err}
}

// Errorf - categorized wrapper around a formatted cause
func Errorf(cat ErrorCategory, format string, args ...any) error {
	return &Error{Category: cat, Err: fmt.Errorf(format, args...)}
}

// CategoryOf - category of err, or CategoryProcessing if it carries none
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryProcessing
}

//--------------------

var (
	ErrNoImages          error = errors.New("no images provided")                   // 400
	ErrUndecodableImage  error = errors.New("image cannot be decoded")              // 400
	ErrInvalidName       error = errors.New("invalid filename")                     // 400
	ErrUnsupportedFormat error = errors.New("unsupported original image format")    // 400
	ErrIncorrectMode     error = errors.New("processing mode must be local/remote") // 400
	ErrIncorrectExport   error = errors.New("export type must be png/webp/jpg")     // 400
	ErrMissingPrefix     error = errors.New("key prefix is missing")                // 400
	ErrBadKeyPrefix      error = errors.New("invalid key prefix format")            // 400
	ErrBadBucketName     error = errors.New("invalid bucket name format")           // 500
	ErrBucketMissing     error = errors.New("bucket does not exist or is inaccessible")
	ErrOversizedInput    error = errors.New("source image dimensions exceed the configured maximum")
	ErrEncodingFailed    error = errors.New("failed to encode derivative")
	ErrKeyExists         error = errors.New("remote key already exists and overwrite is disabled")
)
