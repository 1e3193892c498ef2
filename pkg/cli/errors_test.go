package cli

import (
	"errors"
	"fmt"
	"testing"

	"anon-bd/anonrun/pkg/config"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/manifest"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "usage", err: NewUsageError("unknown format %q", "xml"), want: ExitUsage},
		{name: "wrapped usage", err: fmt.Errorf("run: %w", NewUsageError("bad")), want: ExitUsage},
		{name: "configuration", err: failure.Configuration("privacy.k", "missing required key: k"), want: ExitConfiguration},
		{name: "manifest validation", err: manifest.ValidationError{Errors: []manifest.FieldError{{Field: "privacy.k"}}}, want: ExitConfiguration},
		{name: "config validation", err: &config.ValidationError{Errors: []config.FieldError{{Field: "engine.type"}}}, want: ExitConfiguration},
		{name: "io", err: failure.IO("in.csv", "cannot read input file", nil), want: ExitIO},
		{name: "engine", err: failure.Engine("no output (constraints may be infeasible)", nil), want: ExitEngine},
		{name: "command wraps kind", err: NewCommandError("run", failure.Engine("timeout", nil)), want: ExitEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("inner error")
	err := NewCommandError("validate", inner)

	if err.Error() != "validate failed: inner error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("CommandError should unwrap to inner error")
	}
}

func TestUsageError(t *testing.T) {
	err := NewUsageError("accepts %d arg(s), received %d", 1, 2)
	if err.Error() != "accepts 1 arg(s), received 2" {
		t.Errorf("Error() = %q", err.Error())
	}
}
