package history

import (
	"fmt"
	"time"
)

// Job statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Record describes one finished job.
type Record struct {
	ID           string        `json:"id"`
	ManifestPath string        `json:"manifest_path"`
	InputPath    string        `json:"input_path,omitempty"`
	OutputPath   string        `json:"output_path,omitempty"`
	Status       string        `json:"status"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	RowsIn       int           `json:"rows_in"`
	RowsOut      int           `json:"rows_out"`
	Models       []string      `json:"models,omitempty"`
}

// Query filters records. Zero fields do not filter.
type Query struct {
	Status string
	Since  *time.Time
	Before *time.Time
	Limit  int
	Offset int
}

// StorageError represents an error from the history database.
type StorageError struct {
	Driver    string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [driver=%s, operation=%s]: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(driver, operation string, cause error) *StorageError {
	return &StorageError{
		Driver:    driver,
		Operation: operation,
		Cause:     cause,
	}
}
