// Package engine talks to the anonymization engine that performs the actual
// generalization and suppression search.
//
// Two clients share one JSON wire format: an HTTP client for an engine
// service and an exec client that runs an engine binary with the request on
// stdin and the response on stdout.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/manifest"
	"anon-bd/anonrun/pkg/privacy"
)

// Engine anonymizes a dataset under a privacy configuration.
type Engine interface {
	// Supports reports whether the engine implements an optional model
	// variant.
	Supports(v privacy.Variant) bool

	// Anonymize returns the transformed table. A nil table with a nil error
	// means no transformation satisfies the constraints.
	Anonymize(ctx context.Context, req *Request) (*dataset.Table, error)
}

// CapabilityLoader is implemented by engines whose capabilities are
// discovered remotely. A job loads them with its own context before the
// privacy configuration queries Supports.
type CapabilityLoader interface {
	LoadCapabilities(ctx context.Context) error
}

// Pinger is implemented by engines that can check their own availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Request is everything the engine needs for one job.
type Request struct {
	JobID      string
	Table      *dataset.Table
	Definition *dataset.Definition
	Privacy    *privacy.Config
	Algorithm  manifest.Algorithm
}

// Engine client types.
const (
	TypeHTTP = "http"
	TypeExec = "exec"
)

// Options selects and configures an engine client.
type Options struct {
	Type    string
	BaseURL string

	// Timeout bounds one Anonymize call. Zero means no limit.
	Timeout time.Duration

	Command string
	Args    []string
	Env     []string

	// Capabilities lists the optional variants an exec engine implements.
	Capabilities []string
}

// New creates the engine client described by opts.
func New(opts Options, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch opts.Type {
	case TypeHTTP, "":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("http engine requires a base URL")
		}
		return NewHTTPClient(opts.BaseURL, opts.Timeout, logger), nil
	case TypeExec:
		if opts.Command == "" {
			return nil, fmt.Errorf("exec engine requires a command")
		}
		c := NewExecClient(opts.Command, opts.Args, opts.Capabilities, logger)
		c.Env = opts.Env
		c.Timeout = opts.Timeout
		return c, nil
	default:
		return nil, fmt.Errorf("unknown engine type %q", opts.Type)
	}
}

// withTimeout derives a context bounded by d, or returns ctx unchanged when d
// is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// excerpt trims diagnostic output to something fit for an error message.
func excerpt(b []byte) string {
	const max = 512
	s := string(b)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
