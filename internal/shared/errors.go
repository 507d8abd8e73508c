package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying failures across the service. Services wrap
// these with typed errors carrying the offending entity or filter so that
// handlers can build useful problem responses.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a malformed or contradictory request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnexpected indicates an internal contract violation by a caller.
	ErrUnexpected = errors.New("unexpected error")
	// ErrNotSupported indicates a backend capability is missing.
	ErrNotSupported = errors.New("not supported")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
)

// NotFoundError reports a missing entity by kind and ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError for the given entity.
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InvalidArgumentError reports a bad filter or field value.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid argument: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// NewInvalidArgument builds an InvalidArgumentError.
func NewInvalidArgument(field, reason string) error {
	return &InvalidArgumentError{Field: field, Reason: reason}
}

// UnexpectedError reports a programming error in a calling layer. These must
// fail loudly rather than being recovered locally.
type UnexpectedError struct {
	Reason string
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %s", e.Reason)
}

func (e *UnexpectedError) Unwrap() error { return ErrUnexpected }

// NewUnexpected builds an UnexpectedError.
func NewUnexpected(reason string) error {
	return &UnexpectedError{Reason: reason}
}
