// Package metrics records Prometheus metrics for anonymization jobs.
//
// anonrun is a batch tool, so metrics are not scraped from a long-lived
// server. After each job the registry is written to a node-exporter textfile
// and/or pushed to a Pushgateway, whichever is configured. Watch mode can
// additionally serve the registry over HTTP with Handler.
//
// # Metrics
//
//   - anonrun_jobs_total{status,error_kind}: finished jobs
//   - anonrun_job_duration_seconds: wall time of a job
//   - anonrun_engine_duration_seconds: time spent in the engine
//   - anonrun_hierarchy_rows_loaded_total: hierarchy rows read from disk
//   - anonrun_privacy_models_total{model}: privacy models submitted
//   - anonrun_rows_total{direction}: dataset rows read ("in") and written ("out")
//   - anonrun_last_success_timestamp_seconds: completion time of the last successful job
//
// A nil *Collector is valid and records nothing.
package metrics
