// Package errors provides centralized error definitions and error handling
// utilities for parplan. It defines the analyzer's fatal error taxonomy,
// error constructors with context, and classification helpers.
//
// # Error Types
//
// Structural errors abort an analysis with no partial result:
//   - InvalidTaskError: a raw task record failed ingress validation
//   - DuplicateIDError: two task records share an id
//   - UnknownDependencyError: a declared dependency names no known task
//   - CycleError: the dependency graph contains a cycle
//
// InternalError marks invariant violations detected after computation.
// It indicates a defect in the analyzer itself, never bad input.
//
// Advisory findings (conflicts, duplicates) are not errors; they are returned
// as data inside a successful analysis.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewInvalidTaskError(3, "description", "must not be empty")
//	err := errors.NewCycleError([]string{"t1", "t2", "t3", "t1"})
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrDependencyCycle) { ... }
//
//	var cycleErr *errors.CycleError
//	if errors.As(err, &cycleErr) { ... cycleErr.Path ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning Severity = iota
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Structural sentinel errors. Any of these means the task set cannot be
// parallelized as given and the caller should fall back to sequential
// execution of the original task order.
var (
	// ErrInvalidTask indicates that a raw task record failed validation.
	ErrInvalidTask = New("invalid task")
	// ErrDuplicateID indicates that two task records share an id.
	ErrDuplicateID = New("duplicate task id")
	// ErrUnknownDependency indicates a declared dependency on an unknown task.
	ErrUnknownDependency = New("unknown dependency")
	// ErrDependencyCycle indicates a circular dependency between tasks.
	ErrDependencyCycle = New("dependency cycle detected")
)

// ErrInternalInconsistency indicates that a computed plan violated its own
// invariants. This is a defect in the analyzer, not a problem with the input.
var ErrInternalInconsistency = New("internal inconsistency")

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Structural Errors
// -----------------------------------------------------------------------------

// InvalidTaskError reports a raw task record that failed ingress validation.
// Index identifies the offending record by its position in the caller's input,
// before any internal reordering.
type InvalidTaskError struct {
	baseError
	Index int
	Field string
}

// NewInvalidTaskError creates a new InvalidTaskError for the record at the
// given input index.
func NewInvalidTaskError(index int, field, reason string) *InvalidTaskError {
	return &InvalidTaskError{
		baseError: baseError{
			message:    reason,
			cause:      ErrInvalidTask,
			severity:   SeverityError,
			userFacing: true,
		},
		Index: index,
		Field: field,
	}
}

// Error returns the formatted error message.
func (e *InvalidTaskError) Error() string {
	return fmt.Sprintf("invalid task [index=%d, field=%s]: %s", e.Index, e.Field, e.message)
}

// Is checks if this error matches the target.
func (e *InvalidTaskError) Is(target error) bool {
	if _, ok := target.(*InvalidTaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DuplicateIDError reports two task records sharing an id. This is distinct
// from semantic duplicate detection, which compares descriptions and never
// fails the analysis.
type DuplicateIDError struct {
	baseError
	ID string
}

// NewDuplicateIDError creates a new DuplicateIDError for the given id.
func NewDuplicateIDError(id string) *DuplicateIDError {
	return &DuplicateIDError{
		baseError: baseError{
			message:    fmt.Sprintf("task id %q appears more than once", id),
			cause:      ErrDuplicateID,
			severity:   SeverityError,
			userFacing: true,
		},
		ID: id,
	}
}

// Is checks if this error matches the target.
func (e *DuplicateIDError) Is(target error) bool {
	if _, ok := target.(*DuplicateIDError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// UnknownDependencyError reports a declared dependency on a task id that does
// not exist in the input.
type UnknownDependencyError struct {
	baseError
	TaskID       string
	DependencyID string
}

// NewUnknownDependencyError creates a new UnknownDependencyError.
func NewUnknownDependencyError(taskID, dependencyID string) *UnknownDependencyError {
	return &UnknownDependencyError{
		baseError: baseError{
			message:    fmt.Sprintf("task %q depends on unknown task %q", taskID, dependencyID),
			cause:      ErrUnknownDependency,
			severity:   SeverityError,
			userFacing: true,
		},
		TaskID:       taskID,
		DependencyID: dependencyID,
	}
}

// Is checks if this error matches the target.
func (e *UnknownDependencyError) Is(target error) bool {
	if _, ok := target.(*UnknownDependencyError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// CycleError reports a dependency cycle. Path holds the ordered task ids
// forming the cycle, with the first id repeated at the end.
type CycleError struct {
	baseError
	Path []string
}

// NewCycleError creates a new CycleError for the given cycle path.
func NewCycleError(path []string) *CycleError {
	return &CycleError{
		baseError: baseError{
			message:    fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
			cause:      ErrDependencyCycle,
			severity:   SeverityError,
			userFacing: true,
		},
		Path: path,
	}
}

// Is checks if this error matches the target.
func (e *CycleError) Is(target error) bool {
	if _, ok := target.(*CycleError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Internal Errors
// -----------------------------------------------------------------------------

// InternalError reports a post-computation invariant violation. It is surfaced
// rather than silently returning a wrong plan.
type InternalError struct {
	baseError
}

// NewInternalError creates a new InternalError with the given detail.
func NewInternalError(detail string) *InternalError {
	return &InternalError{
		baseError: baseError{
			message:    detail,
			cause:      ErrInternalInconsistency,
			severity:   SeverityCritical,
			userFacing: false,
		},
	}
}

// Error returns the formatted error message.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal inconsistency: %s", e.message)
}

// Is checks if this error matches the target.
func (e *InternalError) Is(target error) bool {
	if _, ok := target.(*InternalError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsStructural returns true if the error is one of the fatal structural
// errors that indicate the task set cannot be parallelized as given.
func IsStructural(err error) bool {
	return Is(err, ErrInvalidTask) ||
		Is(err, ErrDuplicateID) ||
		Is(err, ErrUnknownDependency) ||
		Is(err, ErrDependencyCycle)
}

// IsInternal returns true if the error indicates an analyzer defect rather
// than invalid input.
func IsInternal(err error) bool {
	return Is(err, ErrInternalInconsistency)
}

// GetSeverity returns the severity of an error, defaulting to SeverityError
// for errors that don't implement the Severity method.
func GetSeverity(err error) Severity {
	var se interface{ Severity() Severity }
	if As(err, &se) {
		return se.Severity()
	}
	return SeverityError
}
