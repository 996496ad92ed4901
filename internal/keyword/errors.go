package keyword

import "errors"

// NotFoundError signals that a referenced entity does not exist. API callers
// map it to a 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewNotFound builds a NotFoundError with the given message.
func NewNotFound(message string) error {
	return &NotFoundError{Message: message}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// InvalidStateError signals an operation against a keyword that is not in
// the required state. API callers map it to a 400.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

// NewInvalidState builds an InvalidStateError with the given message.
func NewInvalidState(message string) error {
	return &InvalidStateError{Message: message}
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// ValidationError signals malformed caller input. API callers map it to a
// 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation builds a ValidationError with the given message.
func NewValidation(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
