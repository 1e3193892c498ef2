package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"anon-bd/anonrun/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.1, 1, 10},
	}
}

func TestCollector_RecordJob(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordJob("", 2*time.Second)
	c.RecordJob("", time.Second)
	c.RecordJob("configuration", 10*time.Millisecond)

	if got := testutil.ToFloat64(c.jobsTotal.WithLabelValues(StatusSuccess, "")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.jobsTotal.WithLabelValues(StatusFailure, "configuration")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.jobDuration); got != 1 {
		t.Errorf("job duration series = %d, want 1", got)
	}
	if testutil.ToFloat64(c.lastSuccessTime) == 0 {
		t.Error("last success timestamp not set")
	}
}

func TestCollector_DataMetrics(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.RecordHierarchyRows(3)
	c.RecordHierarchyRows(4)
	c.RecordPrivacyModel("k_anonymity")
	c.RecordPrivacyModel("l_diversity")
	c.RecordPrivacyModel("l_diversity")
	c.RecordRows("in", 10)
	c.RecordRows("out", 9)
	c.RecordEngine(500 * time.Millisecond)

	if got := testutil.ToFloat64(c.hierarchyRows); got != 7 {
		t.Errorf("hierarchy rows = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.privacyModels.WithLabelValues("l_diversity")); got != 2 {
		t.Errorf("l_diversity models = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.rowsTotal.WithLabelValues("out")); got != 9 {
		t.Errorf("rows out = %v, want 9", got)
	}

	expected := `
# HELP test_rows_total Total number of dataset rows read and written
# TYPE test_rows_total counter
test_rows_total{direction="in"} 10
test_rows_total{direction="out"} 9
`
	if err := testutil.CollectAndCompare(c.rowsTotal, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordJob("", time.Second)
	c.RecordRows("in", 5)

	if got := testutil.ToFloat64(c.rowsTotal.WithLabelValues("in")); got != 0 {
		t.Errorf("disabled collector recorded %v rows", got)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordJob("io", time.Second)
	c.RecordEngine(time.Second)
	c.RecordHierarchyRows(1)
	c.RecordPrivacyModel("k_anonymity")
	c.RecordRows("in", 1)
	if err := c.Flush(context.Background()); err != nil {
		t.Errorf("Flush() on nil collector: %v", err)
	}
	if c.Registry() != nil {
		t.Error("nil collector has a registry")
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	cfg := testConfig()
	cfg.Textfile = filepath.Join(t.TempDir(), "textfile", "anonrun.prom")
	c := NewCollector(cfg, nil)
	c.RecordJob("", time.Second)

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	data, err := os.ReadFile(cfg.Textfile)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	if !strings.Contains(string(data), `status="success"} 1`) {
		t.Errorf("textfile content:\n%s", data)
	}
}

func TestCollector_Push(t *testing.T) {
	var pushes atomic.Int32
	var path atomic.Value
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.Method + " " + r.URL.Path)
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	cfg := testConfig()
	cfg.PushURL = gateway.URL
	cfg.PushJob = "anonrun"
	c := NewCollector(cfg, nil)
	c.RecordJob("engine", time.Second)

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if pushes.Load() != 1 {
		t.Errorf("pushes = %d, want 1", pushes.Load())
	}
	if got := path.Load(); got != "PUT /metrics/job/anonrun" {
		t.Errorf("push request = %v", got)
	}
}

func TestCollector_PushFailure(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gateway.Close()

	c := NewCollector(testConfig(), nil)
	if err := c.Push(context.Background(), gateway.URL, "anonrun"); err == nil {
		t.Error("expected push error")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), nil)
	c.RecordRows("in", 3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_rows_total{direction="in"} 3`) {
		t.Errorf("body:\n%s", rec.Body.String())
	}
}
