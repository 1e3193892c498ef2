package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"anon-bd/anonrun/pkg/config"
)

// Job statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector owns the Prometheus registry and every anonrun metric.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	jobsTotal       *prometheus.CounterVec
	jobDuration     prometheus.Histogram
	engineDuration  prometheus.Histogram
	hierarchyRows   prometheus.Counter
	privacyModels   *prometheus.CounterVec
	rowsTotal       *prometheus.CounterVec
	lastSuccessTime prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil, a fresh registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = config.DefaultDurationBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "jobs_total",
				Help:      "Total number of anonymization jobs by outcome",
			},
			[]string{"status", "error_kind"},
		),

		jobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "job_duration_seconds",
				Help:      "Wall time of anonymization jobs in seconds",
				Buckets:   buckets,
			},
		),

		engineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "engine_duration_seconds",
				Help:      "Time spent waiting for the anonymization engine in seconds",
				Buckets:   buckets,
			},
		),

		hierarchyRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "hierarchy_rows_loaded_total",
				Help:      "Total number of hierarchy rows loaded from disk",
			},
		),

		privacyModels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "privacy_models_total",
				Help:      "Total number of privacy models submitted to the engine",
			},
			[]string{"model"},
		),

		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "rows_total",
				Help:      "Total number of dataset rows read and written",
			},
			[]string{"direction"},
		),

		lastSuccessTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful job",
			},
		),
	}

	registry.MustRegister(
		c.jobsTotal,
		c.jobDuration,
		c.engineDuration,
		c.hierarchyRows,
		c.privacyModels,
		c.rowsTotal,
		c.lastSuccessTime,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordJob records a finished job. errorKind is empty for successful jobs.
func (c *Collector) RecordJob(errorKind string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	status := StatusSuccess
	if errorKind != "" {
		status = StatusFailure
	}
	c.jobsTotal.WithLabelValues(status, errorKind).Inc()
	c.jobDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		c.lastSuccessTime.SetToCurrentTime()
	}
}

// RecordEngine records one engine call.
func (c *Collector) RecordEngine(duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.engineDuration.Observe(duration.Seconds())
}

// RecordHierarchyRows records rows read from one hierarchy file.
func (c *Collector) RecordHierarchyRows(n int) {
	if !c.enabled() {
		return
	}
	c.hierarchyRows.Add(float64(n))
}

// RecordPrivacyModel records a model of the given kind being submitted.
func (c *Collector) RecordPrivacyModel(model string) {
	if !c.enabled() {
		return
	}
	c.privacyModels.WithLabelValues(model).Inc()
}

// RecordRows records dataset rows read ("in") or written ("out").
func (c *Collector) RecordRows(direction string, n int) {
	if !c.enabled() {
		return
	}
	c.rowsTotal.WithLabelValues(direction).Add(float64(n))
}
