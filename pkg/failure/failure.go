// Package failure defines the error kinds every stage of an anonymization job
// reports, so that callers can tell a malformed job from an unreadable file
// from a well-formed job the engine could not satisfy.
package failure

import (
	"errors"
	"fmt"
)

// Kind categorizes a job failure.
type Kind string

const (
	KindNone          Kind = ""
	KindConfiguration Kind = "configuration" // Missing/malformed manifest field, unknown enum value, overwrite policy
	KindIO            Kind = "io"            // File not found, unreadable hierarchy, unwritable output
	KindEngine        Kind = "engine"        // Engine returned no output or failed
)

// Error is a job failure of a given kind.
type Error struct {
	Kind    Kind
	Key     string // Offending manifest key, attribute, or path (optional)
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Key != "" && msg == "" {
		msg = e.Key
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration creates a configuration error for key.
func Configuration(key, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	}
}

// IO creates an I/O error for path.
func IO(path, message string, err error) *Error {
	return &Error{
		Kind:    KindIO,
		Key:     path,
		Message: message,
		Err:     err,
	}
}

// Engine creates an engine error.
func Engine(message string, err error) *Error {
	return &Error{
		Kind:    KindEngine,
		Message: message,
		Err:     err,
	}
}

// kinded is implemented by errors that carry their own kind without being
// an *Error, such as aggregated validation reports.
type kinded interface {
	FailureKind() Kind
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k kinded
	if errors.As(err, &k) {
		return k.FailureKind()
	}
	return KindNone
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
