package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError via errors.Is
	ErrValidation = errors.New("validation error")
	// ErrOptimization is matched by every OptimizationError via errors.Is
	ErrOptimization = errors.New("optimization error")
)

// ValidationError reports malformed input rejected before any solver or sampler runs
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// OptimizationError reports a solver failure for one material's planning cycle.
// Callers must skip or retry the material; a zero plan is never substituted.
type OptimizationError struct {
	Material MaterialName
	Cause    error
}

// NewOptimizationError wraps a solver failure for a material
func NewOptimizationError(material MaterialName, cause error) *OptimizationError {
	return &OptimizationError{Material: material, Cause: cause}
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("optimization error for %s: %v", e.Material, e.Cause)
}

// Unwrap returns the underlying solver error
func (e *OptimizationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrOptimization
func (e *OptimizationError) Is(target error) bool {
	return target == ErrOptimization
}
