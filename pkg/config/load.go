package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"anon-bd/anonrun/pkg/failure"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration file %q: %w", path, err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention ANONRUN_SECTION_FIELD (e.g., ANONRUN_ENGINE_BASE_URL).
// Environment variables always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return finish(cfg, path)
}

// LoadOptional behaves like LoadConfigWithEnvOverrides but falls back to the
// defaults when path does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default(), "")
	}
	if err != nil {
		return nil, err
	}
	return finish(cfg, path)
}

// LoadEnvFile seeds the process environment from a dotenv file. Variables
// already set are kept. A missing file is an error only when required.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("env file %q: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to parse env file %q: %w", path, err)
	}
	return nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.IO(path, fmt.Sprintf("failed to read configuration file %q", path), err)
	}

	// Decoding over the defaults keeps boolean defaults for absent keys.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, failure.Configuration("", "failed to parse configuration file %q: %v", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

func finish(cfg *Config, path string) (*Config, error) {
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		if path == "" {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return nil, fmt.Errorf("invalid configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format ANONRUN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	if val := os.Getenv("ANONRUN_ENGINE_TYPE"); val != "" {
		cfg.Engine.Type = val
	}
	if val := os.Getenv("ANONRUN_ENGINE_BASE_URL"); val != "" {
		cfg.Engine.BaseURL = val
	}
	if val := os.Getenv("ANONRUN_ENGINE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.Timeout = d
		}
	}
	if val := os.Getenv("ANONRUN_ENGINE_COMMAND"); val != "" {
		cfg.Engine.Command = val
	}
	if val := os.Getenv("ANONRUN_ENGINE_ARGS"); val != "" {
		cfg.Engine.Args = strings.Fields(val)
	}
	if val := os.Getenv("ANONRUN_ENGINE_CAPABILITIES"); val != "" {
		cfg.Engine.Capabilities = splitList(val)
	}

	// Telemetry overrides
	if val := os.Getenv("ANONRUN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_LOGGING_REDACT_PII"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.RedactPII = b
		}
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_METRICS_TEXTFILE"); val != "" {
		cfg.Telemetry.Metrics.Textfile = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_METRICS_PUSH_URL"); val != "" {
		cfg.Telemetry.Metrics.PushURL = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_METRICS_PUSH_JOB"); val != "" {
		cfg.Telemetry.Metrics.PushJob = val
	}

	if val := os.Getenv("ANONRUN_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_TRACING_INSECURE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Insecure = b
		}
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_TRACING_SAMPLER"); val != "" {
		cfg.Telemetry.Tracing.Sampler = val
	}
	if val := os.Getenv("ANONRUN_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// History overrides
	if val := os.Getenv("ANONRUN_HISTORY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.History.Enabled = b
		}
	}
	if val := os.Getenv("ANONRUN_HISTORY_DRIVER"); val != "" {
		cfg.History.Driver = val
	}
	if val := os.Getenv("ANONRUN_HISTORY_PATH"); val != "" {
		cfg.History.Path = val
	}
	if val := os.Getenv("ANONRUN_HISTORY_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.History.RetentionDays = i
		}
	}
	if val := os.Getenv("ANONRUN_HISTORY_PRUNE_SCHEDULE"); val != "" {
		cfg.History.PruneSchedule = val
	}

	// Watch overrides
	if val := os.Getenv("ANONRUN_WATCH_DEBOUNCE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Watch.Debounce = d
		}
	}
	if val := os.Getenv("ANONRUN_WATCH_METRICS_ADDRESS"); val != "" {
		cfg.Watch.MetricsAddress = val
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
