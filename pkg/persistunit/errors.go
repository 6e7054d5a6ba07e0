package persistunit

import (
	"errors"
	"fmt"
)

// Sentinel errors for unit resolution.
var (
	// ErrEmptyUnitName indicates Resolve was called without a unit name.
	ErrEmptyUnitName = errors.New("persistence unit name is empty")

	// ErrRegistryClosed indicates the registry has been shut down.
	// Shutdown is terminal: factories are never rebuilt afterwards.
	ErrRegistryClosed = errors.New("unit registry closed")

	// ErrNilFactory indicates a builder returned neither a factory nor an error.
	ErrNilFactory = errors.New("builder returned nil factory")

	// ErrNilSession indicates a factory returned neither a session nor an error.
	ErrNilSession = errors.New("factory returned nil session")
)

// ConstructionError reports a failed factory build for a unit.
// No entry is recorded for the unit, so a later Resolve retries the build.
type ConstructionError struct {
	// Unit is the persistence unit that failed to build.
	Unit string
	// Err is the error returned by the builder.
	Err error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("build persistence unit %q: %v", e.Unit, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// InjectionError wraps failures that happen while serving an injection point.
type InjectionError struct {
	// Op is the injection operation ("unit", "context").
	Op string
	// Unit is the resolved unit name, empty if extraction itself failed.
	Unit string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InjectionError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("inject persistence %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("inject persistence %s for unit %q: %v", e.Op, e.Unit, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InjectionError) Unwrap() error {
	return e.Err
}

// ErrReferenceReleased indicates Instance was called on a released reference.
var ErrReferenceReleased = errors.New("resource reference released")
