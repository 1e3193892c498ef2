package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultEngineType    = "http"
	DefaultEngineBaseURL = "http://127.0.0.1:8700"
	DefaultEngineTimeout = time.Duration(0)

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "console"
	DefaultLoggingRedactPII = true
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "anonrun"
	DefaultMetricsPushJob   = "anonrun"

	DefaultTracingEnabled     = false
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "anonrun"

	// History defaults
	DefaultHistoryEnabled       = true
	DefaultHistoryDriver        = "sqlite3"
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetentionDays = 90
	DefaultHistoryPruneSchedule = "0 3 * * *"

	// Watch defaults
	DefaultWatchDebounce = 500 * time.Millisecond

	// DefaultConfigPath is used when no --config flag is given.
	DefaultConfigPath = "anonrun.yaml"
)

// DefaultDurationBuckets cover sub-second dry runs up to hour-long searches.
var DefaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600}

// Default returns a configuration holding every default, including the
// boolean ones a YAML overlay may switch off.
func Default() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPII: DefaultLoggingRedactPII},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Enabled: DefaultTracingEnabled},
		},
		History: HistoryConfig{
			Enabled:       DefaultHistoryEnabled,
			RetentionDays: DefaultHistoryRetentionDays,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Booleans and
// RetentionDays are left alone since their zero value is meaningful; see
// Default.
func ApplyDefaults(cfg *Config) {
	applyEngineDefaults(&cfg.Engine)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyHistoryDefaults(&cfg.History)

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultEngineType
	}
	if cfg.Type == "http" && cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEngineBaseURL
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.PushJob == "" {
		cfg.Metrics.PushJob = DefaultMetricsPushJob
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func applyHistoryDefaults(cfg *HistoryConfig) {
	if cfg.Driver == "" {
		cfg.Driver = DefaultHistoryDriver
	}
	if cfg.Path == "" {
		cfg.Path = DefaultHistoryPath
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = DefaultHistoryPruneSchedule
	}
}
