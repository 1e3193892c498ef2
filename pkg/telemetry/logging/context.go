package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	// JobIDKey is the context key for job IDs.
	JobIDKey contextKey = "job_id"

	loggerKey contextKey = "logger"
)

// WithJobID adds a job ID to the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// JobID retrieves the job ID from the context.
func JobID(ctx context.Context) string {
	if id, ok := ctx.Value(JobIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context's logger, else fallback, else
// slog.Default(), with the context's job ID attached.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		logger = fallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	if id := JobID(ctx); id != "" {
		logger = logger.With("job_id", id)
	}
	return logger
}
