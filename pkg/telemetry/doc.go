// Package telemetry groups the observability packages used by anonrun.
//
// # Components
//
//   - logging: Structured logging with PII redaction and job-scoped loggers
//   - metrics: Prometheus job metrics, exported by textfile, push or HTTP
//   - health: Liveness and readiness checks for watch mode
//   - tracing: OpenTelemetry spans per job stage, exported over OTLP
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "console"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	runner := job.NewRunner(eng, logger)
//	runner.Metrics = collector
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//	runner.Tracer = tracer
//
// Metrics are flushed after every job. In watch mode they are also served on
// the configured address next to the health endpoints.
package telemetry
