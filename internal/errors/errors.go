// Package errors provides the error taxonomy shared by the pdeck catalog client.
//
// Every catalog operation returns an explicit outcome. Failures fall into three
// kinds, each with a sentinel and a wrapped type that adds context:
//
//   - ErrInvalid / ValidationError - rejected locally before any network call
//   - ErrNotFound / NotFoundError - the referenced id is absent from the local snapshot
//   - ErrRemote / RemoteError - transport failure or non-success answer from the service
//
// Workflow-level outcomes:
//   - ErrBusy - another workflow is already open
//   - ErrStale - a late response arrived for a workflow that has since closed
//   - ErrCanceled - the user declined a confirmation
//
// # Usage
//
//	return &errors.ValidationError{Field: "title", Reason: "must not be blank"}
//
//	if errors.IsRemote(err) {
//	    // keep the workflow open, show err to the user
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrNotFound indicates a referenced entity is not in the local snapshot.
	ErrNotFound = baseError("not found")

	// ErrInvalid indicates local validation failed.
	ErrInvalid = baseError("invalid")

	// ErrRemote indicates the collection service could not be reached or refused the request.
	ErrRemote = baseError("remote request failed")

	// ErrBusy indicates a workflow is already active.
	ErrBusy = baseError("another workflow is open")

	// ErrStale indicates a response arrived after its workflow was closed.
	ErrStale = baseError("stale response")

	// ErrIO indicates a file I/O error.
	ErrIO = baseError("I/O error")

	// ErrCanceled indicates the user canceled an operation.
	ErrCanceled = baseError("canceled")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// ValidationError describes a draft or name rejected before reaching the network.
type ValidationError struct {
	// Field is the offending input (e.g., "title", "category_id", "name").
	Field string
	// Reason says what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// NotFoundError reports an id missing from the local snapshot.
type NotFoundError struct {
	// Kind is the entity kind ("prompt", "category", "tag").
	Kind string
	// ID is the missing identifier.
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RemoteError represents a failed call to the collection service.
type RemoteError struct {
	// Op is the remote operation (e.g., "list prompts", "delete tag").
	Op string
	// Status is the HTTP status code, or 0 for transport failures.
	Status int
	// Err is the underlying error.
	Err error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("remote %s: %s", e.Op, e.Err)
}

// Is lets errors.Is match both ErrRemote and the wrapped cause.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

func (e *RemoteError) Unwrap() error { return e.Err }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError for op unless it already is one.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsRemoteError(err); ok {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsRemote reports whether err is or wraps ErrRemote.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsBusy reports whether err is or wraps ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsStale reports whether err is or wraps ErrStale.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsIO reports whether err is or wraps ErrIO.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// AsValidationError reports whether err can be typed as a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsRemoteError reports whether err can be typed as a *RemoteError.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
