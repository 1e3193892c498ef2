package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: 5 * time.Second},
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if len(checker.Names()) != 0 {
				t.Errorf("expected 0 checks, got %d", len(checker.Names()))
			}
		})
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("history", func(context.Context) error { return nil })
	checker.RegisterCheck("engine", func(context.Context) error { return nil })
	checker.RegisterCheck("engine", func(context.Context) error { return errors.New("replaced") })

	names := checker.Names()
	if strings.Join(names, ",") != "engine,history" {
		t.Errorf("Names() = %v, want [engine history]", names)
	}

	status := checker.CheckReadiness(context.Background())
	if status.Checks["engine"].Message != "replaced" {
		t.Error("re-registering a check should replace it")
	}
}

func TestCheckLiveness(t *testing.T) {
	status := New(0).CheckLiveness(context.Background())
	if status.Status != StatusOK {
		t.Errorf("expected status %q, got %q", StatusOK, status.Status)
	}
	if status.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"engine":  func(context.Context) error { return nil },
				"history": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one unhealthy",
			checks: map[string]CheckFunc{
				"engine":   func(context.Context) error { return nil },
				"last_run": func(context.Context) error { return errors.New("component unhealthy") },
			},
			wantStatus: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, status.Status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("expected %d results, got %d", len(tt.checks), len(status.Checks))
			}
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(100 * time.Millisecond)
	checker.RegisterCheck("slow", func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	if status.Status != StatusDegraded {
		t.Errorf("expected status %q, got %q", StatusDegraded, status.Status)
	}
	if msg := status.Checks["slow"].Message; msg != "health check timeout" {
		t.Errorf("expected timeout message, got %q", msg)
	}
}

func TestCheckReadiness_ContextCancellation(t *testing.T) {
	checker := New(5 * time.Second)
	checker.RegisterCheck("test", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := checker.CheckReadiness(ctx).Checks["test"].Status; got != StatusUnhealthy {
		t.Errorf("expected test check to be unhealthy, got %q", got)
	}
}

func TestRunTracker(t *testing.T) {
	tracker := NewRunTracker()
	ctx := context.Background()

	if err := tracker.Check(ctx); err == nil {
		t.Error("Check() should fail before the first run")
	}

	tracker.Record(nil)
	if err := tracker.Check(ctx); err != nil {
		t.Errorf("Check() after success = %v", err)
	}

	tracker.Record(errors.New("no output (constraints may be infeasible)"))
	err := tracker.Check(ctx)
	if err == nil || !strings.Contains(err.Error(), "infeasible") {
		t.Errorf("Check() after failure = %v", err)
	}

	if _, lastErr, ok := tracker.Last(); !ok || lastErr == nil {
		t.Error("Last() should report the failed run")
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	tracker := NewRunTracker()
	checker.RegisterCheck("last_run", tracker.Check)

	mux := http.NewServeMux()
	Mount(mux, checker, VersionInfo{Version: "1.2.0", Commit: "abc123"})

	tests := []struct {
		name       string
		method     string
		path       string
		setup      func()
		wantStatus int
		wantBody   string
	}{
		{name: "liveness", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "liveness head", method: http.MethodHead, path: "/health", wantStatus: http.StatusOK},
		{name: "liveness post", method: http.MethodPost, path: "/health", wantStatus: http.StatusMethodNotAllowed},
		{name: "not ready before first run", method: http.MethodGet, path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "no job run yet"},
		{
			name:       "ready after successful run",
			method:     http.MethodGet,
			path:       "/ready",
			setup:      func() { tracker.Record(nil) },
			wantStatus: http.StatusOK,
			wantBody:   `"status":"ready"`,
		},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK, wantBody: `"version":"1.2.0"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Error("HEAD response should have no body")
			}
		})
	}
}

func TestVersionHandler_FillsGoVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(VersionInfo{Version: "dev"})(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info.GoVersion == "" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}
