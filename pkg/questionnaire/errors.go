package questionnaire

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an engine failure for caller recovery logic.
type ErrorKind string

const (
	// ErrorKindInvalidState indicates a structural mutation or lifecycle
	// transition attempted against a version in the wrong status.
	ErrorKindInvalidState ErrorKind = "invalid_state"

	// ErrorKindConflict indicates a violation of the single-draft or
	// single-published invariant.
	ErrorKindConflict ErrorKind = "conflict"

	// ErrorKindNotFound indicates an unknown version, step, or question id.
	ErrorKindNotFound ErrorKind = "not_found"

	// ErrorKindValidation indicates a malformed payload, such as a choice
	// question without options.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindInternal indicates a store or infrastructure failure.
	ErrorKindInternal ErrorKind = "internal"
)

// Error is a classified engine error. All engine failures are
// recoverable by the caller: state is left unchanged and the error
// carries enough context to report or retry.
type Error struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Entity names the entity kind involved (version, step, question).
	Entity string `json:"entity,omitempty"`

	// EntityID is the id of the entity involved, if applicable.
	EntityID string `json:"entity_id,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Operation != "" {
		msg = fmt.Sprintf("%s (operation=%s)", msg, e.Operation)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// NewInvalidStateError creates an invalid-state error for a mutation
// attempted outside a draft.
func NewInvalidStateError(operation string, status VersionStatus) *Error {
	return &Error{
		Kind:      ErrorKindInvalidState,
		Message:   fmt.Sprintf("version is %s, structural edits require a draft", status),
		Operation: operation,
		Entity:    "version",
	}
}

// NewConflictError creates a conflict error for a single-slot invariant
// violation.
func NewConflictError(message string) *Error {
	return &Error{
		Kind:    ErrorKindConflict,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error for an unknown entity id.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Kind:     ErrorKindNotFound,
		Message:  fmt.Sprintf("%s not found: %s", entity, id),
		Entity:   entity,
		EntityID: id,
	}
}

// NewValidationError creates a validation error for a malformed payload.
func NewValidationError(message string, err error) *Error {
	return &Error{
		Kind:    ErrorKindValidation,
		Message: message,
		Err:     err,
	}
}

// NewInternalError wraps a store or infrastructure failure.
func NewInternalError(message string, err error) *Error {
	return &Error{
		Kind:    ErrorKindInternal,
		Message: message,
		Err:     err,
	}
}

// IsInvalidState returns true if the error is classified invalid_state.
func IsInvalidState(err error) bool {
	return kindOf(err) == ErrorKindInvalidState
}

// IsConflict returns true if the error is classified conflict.
func IsConflict(err error) bool {
	return kindOf(err) == ErrorKindConflict
}

// IsNotFound returns true if the error is classified not_found.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrorKindNotFound
}

// IsValidation returns true if the error is classified validation.
func IsValidation(err error) bool {
	return kindOf(err) == ErrorKindValidation
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
