// Package logging builds the structured loggers used by anonrun.
//
// # Overview
//
// Loggers are plain *slog.Logger values. The handler depends on the
// configured format:
//   - console: colored, human-readable lines (the default for a terminal)
//   - json: one JSON object per line, for log shippers
//   - text: slog's logfmt-style key=value lines
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "console",
//	})
//
//	ctx = logging.WithJobID(ctx, jobID)
//	logging.FromContext(ctx, logger).Info("job started")  // includes job_id
//
// # Redaction
//
// Diagnostics from the engine or from malformed input can echo record
// values. With RedactPII enabled, string attributes and messages are
// scrubbed of e-mail addresses, SSNs, card numbers, phone numbers and IP
// addresses before they reach the handler. Attributes whose key names a
// secret (password, token, api_key, ...) are masked entirely.
package logging
