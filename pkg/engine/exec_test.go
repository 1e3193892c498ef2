package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/privacy"
)

// TestHelperProcess acts as an engine binary when run from execEngine.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	switch os.Getenv("ENGINE_HELPER_MODE") {
	case "infeasible":
		fmt.Fprint(os.Stdout, `{"status":"infeasible"}`)
	case "traceparent":
		var req wireRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			fmt.Fprint(os.Stderr, err)
			os.Exit(2)
		}
		for _, row := range req.Rows {
			row[0] = os.Getenv("TRACEPARENT")
		}
		_ = json.NewEncoder(os.Stdout).Encode(wireResponse{Status: StatusOK, Columns: req.Columns, Rows: req.Rows})
	case "crash":
		fmt.Fprint(os.Stderr, "engine: heap exhausted")
		os.Exit(3)
	default:
		var req wireRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			fmt.Fprint(os.Stderr, err)
			os.Exit(2)
		}
		for _, row := range req.Rows {
			row[0] = "*"
		}
		_ = json.NewEncoder(os.Stdout).Encode(wireResponse{Status: StatusOK, Columns: req.Columns, Rows: req.Rows})
	}
}

func execEngine(mode string, capabilities ...string) *ExecClient {
	c := NewExecClient(os.Args[0], []string{"-test.run=TestHelperProcess", "--"}, capabilities, nil)
	c.Env = []string{"GO_WANT_HELPER_PROCESS=1", "ENGINE_HELPER_MODE=" + mode}
	return c
}

func TestExecClient_Anonymize(t *testing.T) {
	table, err := execEngine("ok").Anonymize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Anonymize() error = %v", err)
	}
	if table == nil || len(table.Rows) != 2 {
		t.Fatalf("table = %+v", table)
	}
	for _, row := range table.Rows {
		if row[0] != "*" {
			t.Errorf("row = %v, want generalized zip", row)
		}
	}
}

func TestExecClient_Infeasible(t *testing.T) {
	table, err := execEngine("infeasible").Anonymize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Anonymize() error = %v", err)
	}
	if table != nil {
		t.Errorf("table = %+v, want nil", table)
	}
}

func TestExecClient_NonZeroExit(t *testing.T) {
	_, err := execEngine("crash").Anonymize(context.Background(), testRequest())
	if !failure.Is(err, failure.KindEngine) {
		t.Fatalf("error = %v, want engine error", err)
	}
	if !strings.Contains(err.Error(), "status 3") || !strings.Contains(err.Error(), "heap exhausted") {
		t.Errorf("error = %q, want exit status and stderr", err)
	}
}

func TestExecClient_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := execEngine("ok").Anonymize(ctx, testRequest())
	if !failure.Is(err, failure.KindEngine) {
		t.Fatalf("error = %v, want engine error", err)
	}
}

func TestExecClient_Supports(t *testing.T) {
	c := execEngine("ok", string(privacy.VariantRecursiveCL))
	if !c.Supports(privacy.VariantRecursiveCL) {
		t.Error("configured capability not reported")
	}
	if execEngine("ok").Supports(privacy.VariantRecursiveCL) {
		t.Error("unconfigured capability reported")
	}
}

func TestExecClient_Ping(t *testing.T) {
	if err := execEngine("ok").Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	missing := NewExecClient("anonrun-engine-that-does-not-exist", nil, nil, nil)
	if err := missing.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail for a missing command")
	}
}
