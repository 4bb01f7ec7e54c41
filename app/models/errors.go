package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/darzi-app/darzi/pkg/validate"
)

// Sentinel errors for the core error taxonomy.
// Use errors.Is to classify any error returned by models or services.
var (
	// ErrValidation indicates malformed or incomplete input. Nothing was applied.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition indicates a status change that is not the immediate
	// successor of the current status. The order is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound indicates a referenced customer, category or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExport indicates the report exporter failed. The report itself was computed.
	ErrExport = errors.New("export failed")

	// ErrConflict indicates the record changed underneath a guarded update.
	ErrConflict = errors.New("conflicting update")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields validate.Errors
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: validate.Errors{field: msg}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields.Fields() {
		parts = append(parts, e.Fields[f])
	}
	return "validation error: " + strings.Join(parts, " ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTransitionError reports a rejected status change.
type InvalidTransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for %s: %s → %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// NotFoundError names the missing entity and the key it was looked up by.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExportError wraps the exporter's failure unchanged.
type ExportError struct {
	Format ReportFormat
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s report: %v", e.Format, e.Err)
}

func (e *ExportError) Is(target error) bool { return target == ErrExport }

func (e *ExportError) Unwrap() error { return e.Err }

// validationFrom converts a validate.Errors map into an error, or nil.
func validationFrom(errs validate.Errors) error {
	if !validate.HasErrors(errs) {
		return nil
	}
	return &ValidationError{Fields: errs}
}
