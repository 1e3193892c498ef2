package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"anon-bd/anonrun/pkg/cli"
)

// TestEngineHelperProcess is the engine binary used by these tests. It
// echoes the input table back unchanged.
func TestEngineHelperProcess(t *testing.T) {
	if os.Getenv("ANONRUN_ENGINE_HELPER") != "1" {
		return
	}

	var req struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		fmt.Fprintf(os.Stderr, "bad request: %v", err)
		os.Exit(2)
	}
	_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
		"status":  "ok",
		"columns": req.Columns,
		"rows":    req.Rows,
	})
	os.Exit(0)
}

type workspace struct {
	dir      string
	config   string
	manifest string
	output   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	w := workspace{
		dir:      dir,
		config:   filepath.Join(dir, "anonrun.yaml"),
		manifest: filepath.Join(dir, "job.yaml"),
		output:   filepath.Join(dir, "out", "anon.csv"),
	}

	writeFile(t, filepath.Join(dir, "patients.csv"), "zip,age,disease\n13053,28,flu\n13068,29,flu\n13053,41,cold\n")
	writeFile(t, filepath.Join(dir, "zip.csv"), "13053,130**\n13068,130**\n")

	writeFile(t, w.config, fmt.Sprintf(`engine:
  type: exec
  command: %q
  args: ["-test.run=TestEngineHelperProcess", "--"]
  env: ["ANONRUN_ENGINE_HELPER=1"]
telemetry:
  logging:
    level: error
    format: text
  metrics:
    enabled: false
history:
  enabled: true
  driver: sqlite
  path: %q
`, os.Args[0], filepath.Join(dir, "history.db")))

	w.writeManifest(t, "  k: 2\n")
	return w
}

func (w workspace) writeManifest(t *testing.T, privacy string) {
	t.Helper()
	writeFile(t, w.manifest, fmt.Sprintf(`input:
  path: %q
output:
  path: %q
attributes:
  - name: zip
    role: qi
    hierarchy: %q
  - name: age
    data_type: integer
  - name: disease
    role: sensitive
privacy:
%s`, filepath.Join(w.dir, "patients.csv"), w.output, filepath.Join(w.dir, "zip.csv"), privacy))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, envFile, verbose = "", "", false
	runFlags.progress = false
	validateFlags.format = "text"
	historyFlags.limit, historyFlags.status, historyFlags.since = 20, "", ""
	historyFlags.format, historyFlags.olderThan = "text", ""
	watchFlags.metricsAddress, watchFlags.debounce = "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoot_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no manifest", args: []string{}},
		{name: "two manifests", args: []string{"a.yaml", "b.yaml"}},
		{name: "run without manifest", args: []string{"run"}},
		{name: "unknown flag", args: []string{"--nope", "job.yaml"}},
		{name: "bad validate format", args: []string{"validate", "job.yaml", "--format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if got := cli.ExitCode(err); got != cli.ExitUsage {
				t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitUsage)
			}
		})
	}
}

func TestRun_EndToEnd(t *testing.T) {
	w := newWorkspace(t)

	out, err := execute(t, "-c", w.config, w.manifest)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, "3 rows in, 3 rows out") {
		t.Errorf("unexpected output:\n%s", out)
	}
	data, err := os.ReadFile(w.output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "zip,age,disease\n") {
		t.Errorf("output = %q", data)
	}

	// A second run, through the explicit subcommand, fails on a missing manifest.
	_, err = execute(t, "-c", w.config, "run", filepath.Join(w.dir, "missing.yaml"))
	if got := cli.ExitCode(err); got != cli.ExitIO {
		t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitIO)
	}

	out, err = execute(t, "-c", w.config, "history", "list", "--format", "json")
	if err != nil {
		t.Fatalf("history list error = %v", err)
	}
	var records []struct {
		Status    string `json:"status"`
		ErrorKind string `json:"error_kind"`
		RowsOut   int    `json:"rows_out"`
	}
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("history list output is not JSON: %v\n%s", err, out)
	}
	if len(records) != 2 {
		t.Fatalf("history has %d records, want 2", len(records))
	}
	if records[0].Status != "failure" || records[0].ErrorKind != "io" {
		t.Errorf("newest record = %+v, want io failure", records[0])
	}
	if records[1].Status != "success" || records[1].RowsOut != 3 {
		t.Errorf("oldest record = %+v, want success", records[1])
	}

	out, err = execute(t, "-c", w.config, "history", "list", "--status", "success", "--format", "csv")
	if err != nil {
		t.Fatalf("history list csv error = %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 {
		t.Errorf("csv output has %d lines, want header and 1 row:\n%s", len(lines), out)
	}

	out, err = execute(t, "-c", w.config, "history", "prune", "--older-than", "1h")
	if err != nil {
		t.Fatalf("history prune error = %v", err)
	}
	if !strings.Contains(out, "Deleted 0 job record(s)") {
		t.Errorf("unexpected prune output: %s", out)
	}
}

func TestRun_OverwriteDisabled(t *testing.T) {
	w := newWorkspace(t)
	data, _ := os.ReadFile(w.manifest)
	writeFile(t, w.manifest, strings.Replace(string(data), "output:\n", "output:\n  overwrite: false\n", 1))

	if err := os.MkdirAll(filepath.Dir(w.output), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, w.output, "keep\n")

	_, err := execute(t, "-c", w.config, w.manifest)
	if got := cli.ExitCode(err); got != cli.ExitConfiguration {
		t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitConfiguration)
	}
}

func TestRun_HistoryUnavailable(t *testing.T) {
	w := newWorkspace(t)
	blocker := filepath.Join(w.dir, "blocker")
	writeFile(t, blocker, "not a directory\n")
	data, _ := os.ReadFile(w.config)
	writeFile(t, w.config, strings.Replace(string(data),
		filepath.Join(w.dir, "history.db"), filepath.Join(blocker, "history.db"), 1))

	if _, err := execute(t, "-c", w.config, w.manifest); err != nil {
		t.Fatalf("run error = %v, want success without history", err)
	}
	if _, err := os.Stat(w.output); err != nil {
		t.Errorf("output not written: %v", err)
	}

	w.writeManifest(t, "  suppression_limit: 0.1\n")
	_, err := execute(t, "-c", w.config, w.manifest)
	if got := cli.ExitCode(err); got != cli.ExitConfiguration {
		t.Errorf("missing k: exit code = %d (%v), want %d", got, err, cli.ExitConfiguration)
	}

	_, err = execute(t, "-c", w.config, "history", "list")
	if got := cli.ExitCode(err); got != cli.ExitIO {
		t.Errorf("history list: exit code = %d (%v), want %d", got, err, cli.ExitIO)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid manifest", func(t *testing.T) {
		w := newWorkspace(t)

		out, err := execute(t, "-c", w.config, "validate", w.manifest, "--format", "json")
		if err != nil {
			t.Fatalf("validate error = %v", err)
		}

		var report validationReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if !report.Valid || report.Rows != 3 || len(report.Attributes) != 3 {
			t.Errorf("report = %+v", report)
		}
		if report.Attributes[0].Levels != 2 || report.Attributes[0].Role != "quasi_identifying" {
			t.Errorf("zip attribute = %+v", report.Attributes[0])
		}
		if _, err := os.Stat(w.output); !os.IsNotExist(err) {
			t.Error("validate must not write output")
		}
	})

	t.Run("every problem reported", func(t *testing.T) {
		w := newWorkspace(t)
		w.writeManifest(t, "  suppression_limit: 2\n")

		out, err := execute(t, "-c", w.config, "validate", w.manifest)
		if got := cli.ExitCode(err); got != cli.ExitConfiguration {
			t.Fatalf("exit code = %d (%v), want %d", got, err, cli.ExitConfiguration)
		}
		for _, want := range []string{"is invalid", "privacy.k", "privacy.suppression_limit"} {
			if !strings.Contains(out, want) {
				t.Errorf("report does not mention %q:\n%s", want, out)
			}
		}
	})
}

func TestHistory_Disabled(t *testing.T) {
	w := newWorkspace(t)
	data, _ := os.ReadFile(w.config)
	writeFile(t, w.config, strings.Replace(string(data), "  enabled: true\n  driver", "  enabled: false\n  driver", 1))

	_, err := execute(t, "-c", w.config, "history", "list")
	if got := cli.ExitCode(err); got != cli.ExitConfiguration {
		t.Errorf("exit code = %d (%v), want %d", got, err, cli.ExitConfiguration)
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30d", want: 30 * 24 * time.Hour},
		{in: "12h", want: 12 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "0d", wantErr: true},
		{in: "-1h", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAge(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAge(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseAge(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
