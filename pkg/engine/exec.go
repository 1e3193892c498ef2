package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/privacy"
	"anon-bd/anonrun/pkg/telemetry/tracing"
)

// ExecClient runs an engine binary per job. The request JSON goes to its
// stdin and the response JSON is read from its stdout.
type ExecClient struct {
	Command string
	Args    []string

	// Env is appended to the current environment.
	Env []string

	Timeout time.Duration

	caps   map[privacy.Variant]bool
	logger *slog.Logger
}

// NewExecClient creates a client for command. capabilities names the
// optional variants the binary implements.
func NewExecClient(command string, args, capabilities []string, logger *slog.Logger) *ExecClient {
	if logger == nil {
		logger = slog.Default()
	}
	caps := make(map[privacy.Variant]bool, len(capabilities))
	for _, name := range capabilities {
		caps[privacy.Variant(name)] = true
	}
	return &ExecClient{
		Command: command,
		Args:    args,
		caps:    caps,
		logger:  logger.With("component", "engine.exec", "command", command),
	}
}

// Supports reports whether v was configured as a capability.
func (c *ExecClient) Supports(v privacy.Variant) bool {
	return c.caps[v]
}

// Ping checks that the engine binary can be found.
func (c *ExecClient) Ping(context.Context) error {
	if _, err := exec.LookPath(c.Command); err != nil {
		return fmt.Errorf("engine command %s not found: %w", c.Command, err)
	}
	return nil
}

// Anonymize runs the engine binary once.
func (c *ExecClient) Anonymize(ctx context.Context, r *Request) (*dataset.Table, error) {
	body, err := encodeRequest(r)
	if err != nil {
		return nil, failure.Engine("failed to encode request", err)
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Env = append(cmd.Env, tracing.Environ(ctx)...)
	cmd.Stdin = bytes.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("starting engine process", "job_id", r.JobID, "args", c.Args)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, failure.Engine("engine process aborted", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, failure.Engine(fmt.Sprintf("engine exited with status %d: %s", exitErr.ExitCode(), excerpt(stderr.Bytes())), err)
		}
		return nil, failure.Engine("failed to run engine", err)
	}

	if stderr.Len() > 0 {
		c.logger.Debug("engine stderr", "output", excerpt(stderr.Bytes()))
	}
	return decodeResponse(stdout.Bytes())
}
