package manifest

import (
	"fmt"
	"strings"

	"anon-bd/anonrun/pkg/failure"
)

// FieldError is a validation problem with one manifest field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "privacy.t_closeness[0].t").
	Field string

	// Message is a human-readable error message.
	Message string

	// Line is the 1-based manifest line, or 0 when unknown.
	Line int
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Field, e.Message, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError reports every problem found in a manifest, in document
// order. Parsing never stops at the first problem.
type ValidationError struct {
	// Path is the manifest file, if known.
	Path string

	// Errors contains all validation errors found in the manifest.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	subject := "manifest"
	if e.Path != "" {
		subject = fmt.Sprintf("manifest %s", e.Path)
	}
	if len(e.Errors) == 0 {
		return subject + " is invalid"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s is invalid: %s", subject, e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s is invalid with %d errors:\n", subject, len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// FailureKind classifies validation reports as configuration errors.
func (e ValidationError) FailureKind() failure.Kind {
	return failure.KindConfiguration
}

// HasField reports whether any error concerns field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}
