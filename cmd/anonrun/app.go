package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"anon-bd/anonrun/pkg/config"
	"anon-bd/anonrun/pkg/engine"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/history"
	"anon-bd/anonrun/pkg/job"
	"anon-bd/anonrun/pkg/telemetry/logging"
	"anon-bd/anonrun/pkg/telemetry/metrics"
	"anon-bd/anonrun/pkg/telemetry/tracing"
)

const defaultConfigHint = config.DefaultConfigPath + " if present"

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  engine.Engine
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	history *history.SQLiteStore
}

// appOptions selects which optional components a command needs.
type appOptions struct {
	engine  bool
	history bool
	// optionalHistory keeps going without a history store when it cannot
	// be opened. Jobs record history on a best-effort basis.
	optionalHistory bool
}

// newApp loads the tool configuration and builds the requested components.
func newApp(opts appOptions) (*app, error) {
	if err := config.LoadEnvFile(envFile, envFile != ""); err != nil {
		return nil, failure.IO(envFile, "cannot load env file", err)
	}

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadConfigWithEnvOverrides(cfgFile)
	} else {
		cfg, err = config.LoadOptional(config.DefaultConfigPath)
	}
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := newLogger(cfg.Telemetry.Logging)
	if err != nil {
		return nil, failure.Configuration("telemetry.logging", "%v", err)
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	if opts.engine {
		a.engine, err = engine.New(engineOptions(cfg.Engine), logger)
		if err != nil {
			return nil, failure.Configuration("engine", "%v", err)
		}
	}

	if cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	if opts.engine {
		a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
		if err != nil {
			return nil, failure.Configuration("telemetry.tracing", "%v", err)
		}
	}

	if opts.history && cfg.History.Enabled {
		a.history, err = history.OpenSQLite(history.SQLiteConfig{
			Driver: cfg.History.Driver,
			Path:   cfg.History.Path,
		}, logger)
		if err != nil {
			if !opts.optionalHistory {
				return nil, failure.IO(cfg.History.Path, "cannot open job history", err)
			}
			logger.Warn("job history unavailable, continuing without it",
				"path", cfg.History.Path,
				"error", err,
			)
			a.history = nil
		}
	}

	return a, nil
}

// runner builds a job runner wired to the app's engine, metrics and history.
func (a *app) runner() *job.Runner {
	r := job.NewRunner(a.engine, a.logger)
	r.Metrics = a.metrics
	r.Tracer = a.tracer
	if a.history != nil {
		r.History = a.history
	}
	return r
}

func (a *app) Close() {
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close job history", "error", err)
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	patterns := make([]logging.Pattern, 0, len(cfg.RedactPatterns))
	for _, p := range cfg.RedactPatterns {
		patterns = append(patterns, logging.Pattern{
			Name:        p.Name,
			Pattern:     p.Pattern,
			Replacement: p.Replacement,
		})
	}

	return logging.New(logging.Config{
		Level:          cfg.Level,
		Format:         cfg.Format,
		AddSource:      cfg.AddSource,
		RedactPII:      cfg.RedactPII,
		RedactPatterns: patterns,
		Writer:         os.Stderr,
	})
}

func engineOptions(cfg config.EngineConfig) engine.Options {
	return engine.Options{
		Type:         cfg.Type,
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		Command:      cfg.Command,
		Args:         cfg.Args,
		Env:          cfg.Env,
		Capabilities: cfg.Capabilities,
	}
}

// requireHistory fails commands that only make sense with history enabled.
func (a *app) requireHistory() error {
	if a.history == nil {
		return failure.Configuration("history.enabled", "job history is disabled in %s", configName())
	}
	return nil
}

func configName() string {
	if cfgFile != "" {
		return cfgFile
	}
	return fmt.Sprintf("%s (or defaults)", config.DefaultConfigPath)
}
