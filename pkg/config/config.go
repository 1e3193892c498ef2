package config

import "time"

// Config is the root tool configuration.
type Config struct {
	// Engine selects and configures the anonymization engine client.
	Engine EngineConfig `yaml:"engine"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures the job history store.
	History HistoryConfig `yaml:"history"`

	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`
}

// EngineConfig configures the anonymization engine client.
type EngineConfig struct {
	// Type is the client kind: "http" or "exec".
	// Default: "http"
	Type string `yaml:"type"`

	// BaseURL is the engine service root for the http client.
	// Default: "http://127.0.0.1:8700"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds one engine call. Zero disables the limit.
	// Default: 0
	Timeout time.Duration `yaml:"timeout"`

	// Command is the engine binary for the exec client.
	Command string `yaml:"command"`

	// Args are passed to Command.
	Args []string `yaml:"args"`

	// Env holds extra KEY=VALUE pairs for Command.
	Env []string `yaml:"env"`

	// Capabilities lists the optional model variants the exec engine
	// implements (e.g. "recursive_cl"). The http client asks the service.
	Capabilities []string `yaml:"capabilities"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is one of console, json, text.
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file:line in log lines.
	AddSource bool `yaml:"add_source"`

	// RedactPII scrubs personal data from log attributes.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns adds custom redaction rules.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom log redaction rule.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures the job metrics registry and its exports.
type MetricsConfig struct {
	// Enabled turns metric recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "anonrun"
	Namespace string `yaml:"namespace"`

	// Textfile is written after each job in the node-exporter textfile
	// format. Empty disables it.
	Textfile string `yaml:"textfile"`

	// PushURL is a Prometheus Pushgateway to push to after each job.
	// Empty disables it.
	PushURL string `yaml:"push_url"`

	// PushJob is the Pushgateway job label.
	// Default: "anonrun"
	PushJob string `yaml:"push_job"`

	// DurationBuckets are the job and engine duration histogram buckets,
	// in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	// Enabled turns span export on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds one export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is one of always, never, ratio.
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of runs traced when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service.name resource attribute.
	// Default: "anonrun"
	ServiceName string `yaml:"service_name"`
}

// HistoryConfig configures the job history store.
type HistoryConfig struct {
	// Enabled turns history recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Driver is the database/sql driver: "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// RetentionDays is how long records are kept. Zero keeps them forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning in watch
	// mode.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after a file change before re-running.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`

	// MetricsAddress serves /metrics while watching. Empty disables it.
	MetricsAddress string `yaml:"metrics_address"`
}
