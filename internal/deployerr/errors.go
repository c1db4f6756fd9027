// Package deployerr defines the error classes shared by the deploy helpers.
//
// Every type unwraps to a containerd errdefs class, so callers can branch
// with errdefs.IsNotFound, errdefs.IsInvalidArgument and friends without
// importing this package.
package deployerr

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// ErrCanceled is returned when a wait is interrupted by the user.
// It is joined with the context error that caused the interruption.
var ErrCanceled = errors.New("wait canceled")

// ConfigurationError reports missing or inconsistent configuration, such as
// an unknown credential name or a parameter absent from an existing stack.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return errdefs.ErrInvalidArgument
}

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a file or resource that is required to exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return errdefs.ErrNotFound
}

// InsufficientResourcesError is returned by admission checks.
type InsufficientResourcesError struct {
	Resource  string
	Available int
	Requested int
}

func (e *InsufficientResourcesError) Error() string {
	return fmt.Sprintf("not enough %s - available: %d, requested: %d", e.Resource, e.Available, e.Requested)
}

func (e *InsufficientResourcesError) Unwrap() error {
	return errdefs.ErrResourceExhausted
}

// DeploymentError reports a stack create or update that ended in failure.
type DeploymentError struct {
	Msg string
}

func (e *DeploymentError) Error() string {
	return e.Msg
}

func (e *DeploymentError) Unwrap() error {
	return errdefs.ErrFailedPrecondition
}

// Canceled wraps a context error as a user cancellation.
func Canceled(cause error) error {
	if cause == nil {
		return ErrCanceled
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

// IsCanceled reports whether err is a user cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
