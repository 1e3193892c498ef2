package job

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/engine"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/hierarchy"
	"anon-bd/anonrun/pkg/history"
	"anon-bd/anonrun/pkg/manifest"
	"anon-bd/anonrun/pkg/privacy"
	"anon-bd/anonrun/pkg/telemetry/logging"
	"anon-bd/anonrun/pkg/telemetry/metrics"
	"anon-bd/anonrun/pkg/telemetry/tracing"
)

// Recorder persists job history.
type Recorder interface {
	Store(ctx context.Context, r *history.Record) error
}

// Config is a fully prepared job: everything the engine needs.
type Config struct {
	JobID       string
	Manifest    *manifest.Manifest
	Table       *dataset.Table
	Definition  *dataset.Definition
	Hierarchies *hierarchy.Cache
	Privacy     *privacy.Config
}

// Result describes a successful run.
type Result struct {
	JobID      string
	OutputPath string
	RowsIn     int
	RowsOut    int
	Models     []string
	StartedAt  time.Time
	Duration   time.Duration
}

// Stages names the steps of a run in order, as reported to Runner.Progress.
// Validate reports the first five.
var Stages = []string{
	"loading manifest",
	"checking paths",
	"reading input",
	"registering attributes",
	"assembling privacy models",
	"running engine",
	"writing output",
}

// stageSpans names the span of each stage.
var stageSpans = []string{
	"job.manifest",
	"job.paths",
	"job.input",
	"job.attributes",
	"job.privacy",
	"job.engine",
	"job.output",
}

const (
	stageManifest = iota
	stagePaths
	stageInput
	stageAttributes
	stagePrivacy
	stageEngine
	stageOutput
)

// ProgressFunc receives the 1-based stage number as each stage begins.
type ProgressFunc func(stage, total int, name string)

// Runner executes jobs against one engine.
type Runner struct {
	Engine engine.Engine
	Logger *slog.Logger

	// Metrics, History, Tracer and Progress are optional.
	Metrics  *metrics.Collector
	History  Recorder
	Tracer   *tracing.Tracer
	Progress ProgressFunc

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner for eng.
func NewRunner(eng engine.Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Engine: eng,
		Logger: logger.With("component", "job"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Run executes the job described by the manifest at manifestPath. Runs on
// the same Runner never overlap.
func (r *Runner) Run(ctx context.Context, manifestPath string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.now()
	jobID := r.newID()
	ctx = logging.WithJobID(ctx, jobID)
	logger := logging.FromContext(ctx, r.Logger)

	ctx, span := r.Tracer.Start(ctx, "job.run", trace.WithAttributes(
		attribute.String("job.id", jobID),
		attribute.String("job.manifest", manifestPath),
	))
	if traceID := tracing.TraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}

	logger.Info("job started", "manifest", manifestPath)

	rec := &history.Record{
		ID:           jobID,
		ManifestPath: manifestPath,
		StartedAt:    started,
	}

	res, err := r.run(ctx, jobID, manifestPath, rec, logger)
	rec.Duration = r.now().Sub(started)
	tracing.End(span, err)
	r.finish(ctx, rec, err, logger)

	if err != nil {
		logger.Error("job failed", "kind", string(failure.KindOf(err)), "error", err)
		return nil, err
	}

	res.StartedAt = started
	res.Duration = rec.Duration
	logger.Info("job finished",
		"output", res.OutputPath,
		"rows_in", res.RowsIn,
		"rows_out", res.RowsOut,
		"duration", res.Duration,
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, jobID, manifestPath string, rec *history.Record, logger *slog.Logger) (*Result, error) {
	cfg, err := r.prepare(ctx, jobID, manifestPath, logger)
	if cfg != nil {
		rec.InputPath = cfg.Manifest.Input.Path
		if cfg.Table != nil {
			rec.RowsIn = len(cfg.Table.Rows)
		}
		if cfg.Privacy != nil {
			rec.Models = cfg.Privacy.Summary()
		}
	}
	if err != nil {
		return nil, err
	}

	if r.Engine == nil {
		return nil, failure.Engine("no anonymization engine configured", nil)
	}

	for _, m := range cfg.Privacy.Models {
		r.Metrics.RecordPrivacyModel(string(m.Kind()))
	}

	req := &engine.Request{
		JobID:      jobID,
		Table:      cfg.Table,
		Definition: cfg.Definition,
		Privacy:    cfg.Privacy,
		Algorithm:  cfg.Manifest.Algorithm,
	}

	out, err := r.anonymize(ctx, req)
	if err != nil {
		return nil, err
	}

	_, end := r.stage(ctx, stageOutput)
	outputPath := cfg.Manifest.Output.Path
	err = writeOutput(out, cfg.Manifest)
	end(err)
	if err != nil {
		return nil, err
	}
	r.Metrics.RecordRows("out", len(out.Rows))
	rec.OutputPath = outputPath
	rec.RowsOut = len(out.Rows)

	return &Result{
		JobID:      jobID,
		OutputPath: outputPath,
		RowsIn:     len(cfg.Table.Rows),
		RowsOut:    len(out.Rows),
		Models:     cfg.Privacy.Summary(),
	}, nil
}

// anonymize runs the engine stage. A nil table from the engine is an
// engine error.
func (r *Runner) anonymize(ctx context.Context, req *engine.Request) (out *dataset.Table, err error) {
	ctx, end := r.stage(ctx, stageEngine)
	defer func() { end(err) }()
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("job.rows_in", len(req.Table.Rows)))

	engineStart := r.now()
	out, err = r.Engine.Anonymize(ctx, req)
	r.Metrics.RecordEngine(r.now().Sub(engineStart))
	if err != nil {
		if failure.KindOf(err) == failure.KindNone {
			err = failure.Engine("anonymization failed", err)
		}
		return nil, err
	}
	if out == nil {
		return nil, failure.Engine("no output (constraints may be infeasible)", nil)
	}
	return out, nil
}

// Validate prepares the job without invoking the engine or writing output.
func (r *Runner) Validate(ctx context.Context, manifestPath string) (*Config, error) {
	jobID := r.newID()
	ctx = logging.WithJobID(ctx, jobID)
	logger := logging.FromContext(ctx, r.Logger)

	cfg, err := r.prepare(ctx, jobID, manifestPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("manifest is valid", "manifest", manifestPath, "models", len(cfg.Privacy.Models))
	return cfg, nil
}

// prepare runs every stage up to the engine call. On failure it still
// returns what was prepared so far, if anything.
func (r *Runner) prepare(ctx context.Context, jobID, manifestPath string, logger *slog.Logger) (*Config, error) {
	_, end := r.stage(ctx, stageManifest)
	m, err := manifest.Load(manifestPath)
	end(err)
	if err != nil {
		return nil, err
	}
	cfg := &Config{JobID: jobID, Manifest: m}

	_, end = r.stage(ctx, stagePaths)
	err = checkPaths(m)
	end(err)
	if err != nil {
		return cfg, err
	}

	_, end = r.stage(ctx, stageInput)
	cfg.Table, err = dataset.Load(m.Input.Path, m.Input.Separator, m.Input.Encoding)
	end(err)
	if err != nil {
		return cfg, err
	}
	r.Metrics.RecordRows("in", len(cfg.Table.Rows))
	logger.Debug("input loaded", "path", m.Input.Path, "columns", len(cfg.Table.Columns), "rows", len(cfg.Table.Rows))

	_, end = r.stage(ctx, stageAttributes)
	cfg.Hierarchies = hierarchy.NewCache()
	cfg.Definition, err = r.defineAttributes(m, cfg.Table, cfg.Hierarchies, logger)
	end(err)
	if err != nil {
		return cfg, err
	}

	pctx, end := r.stage(ctx, stagePrivacy)
	cfg.Privacy, err = r.assemble(pctx, cfg, logger)
	end(err)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

// assemble builds the privacy configuration, loading the engine's
// capabilities first when it discovers them remotely.
func (r *Runner) assemble(ctx context.Context, cfg *Config, logger *slog.Logger) (*privacy.Config, error) {
	if loader, ok := r.Engine.(engine.CapabilityLoader); ok {
		if err := loader.LoadCapabilities(ctx); err != nil {
			return nil, failure.Engine("engine capability query interrupted", err)
		}
	}
	assembler := privacy.NewAssembler(cfg.Hierarchies, cfg.Definition, r.Engine, logger)
	return assembler.Assemble(cfg.Manifest.Privacy)
}

// stage reports stage i to Progress and starts its span. The returned
// function ends the span with the stage's outcome.
func (r *Runner) stage(ctx context.Context, i int) (context.Context, func(error)) {
	if r.Progress != nil {
		r.Progress(i+1, len(Stages), Stages[i])
	}
	ctx, span := r.Tracer.Start(ctx, stageSpans[i])
	return ctx, func(err error) { tracing.End(span, err) }
}

// checkPaths verifies the input exists and the output policy allows the
// write, before any data is read.
func checkPaths(m *manifest.Manifest) error {
	info, err := os.Stat(m.Input.Path)
	if err != nil {
		return failure.IO(m.Input.Path, "cannot read input file", err)
	}
	if info.IsDir() {
		return failure.IO(m.Input.Path, "input path is a directory", nil)
	}

	if !m.Output.Overwrite {
		_, err := os.Stat(m.Output.Path)
		if err == nil {
			return failure.Configuration("output.overwrite",
				"output file %s already exists and output.overwrite is false", m.Output.Path)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return failure.IO(m.Output.Path, "cannot check output file", err)
		}
	}
	return nil
}

func writeOutput(t *dataset.Table, m *manifest.Manifest) error {
	dir := filepath.Dir(m.Output.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failure.IO(dir, "cannot create output directory", err)
	}
	return t.WriteFile(m.Output.Path, m.Input.Separator, m.Input.Encoding, m.Output.Overwrite)
}

// finish records metrics and history for a finished run. Neither may fail
// the job.
func (r *Runner) finish(ctx context.Context, rec *history.Record, err error, logger *slog.Logger) {
	kind := ""
	if err != nil {
		rec.Status = history.StatusFailure
		rec.Error = err.Error()
		kind = string(failure.KindOf(err))
		if kind == "" {
			kind = "other"
		}
		rec.ErrorKind = kind
	} else {
		rec.Status = history.StatusSuccess
	}

	r.Metrics.RecordJob(kind, rec.Duration)
	if ferr := r.Metrics.Flush(ctx); ferr != nil {
		logger.Warn("failed to export metrics", "error", ferr)
	}

	if r.History != nil {
		// The job context may already be cancelled; history is still kept.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if herr := r.History.Store(hctx, rec); herr != nil {
			logger.Warn("failed to record job history", "error", herr)
		}
	}
}

// Targets returns the files a job depends on: the manifest and every
// hierarchy it references. An unreadable manifest yields just its path.
func Targets(manifestPath string) []string {
	targets := []string{manifestPath}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return targets
	}
	return append(targets, m.HierarchyPaths()...)
}

func (c *Config) String() string {
	return fmt.Sprintf("job %s: %d rows, %d attributes, %d models",
		c.JobID, len(c.Table.Rows), len(c.Definition.Attributes()), len(c.Privacy.Models))
}
