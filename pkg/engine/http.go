package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"anon-bd/anonrun/pkg/dataset"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/privacy"
	"anon-bd/anonrun/pkg/telemetry/tracing"
)

// capabilitiesTimeout bounds the one-time capability query.
const capabilitiesTimeout = 10 * time.Second

// HTTPClient is an engine reached over HTTP.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger

	capsMu sync.Mutex
	caps   map[privacy.Variant]bool // nil until loaded
}

// NewHTTPClient creates a client for the engine service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:      4,
				IdleConnTimeout:   90 * time.Second,
				ForceAttemptHTTP2: true,
			},
		},
		logger: logger.With("component", "engine.http", "base_url", baseURL),
	}
}

// LoadCapabilities queries GET /v1/capabilities once, bounded by ctx. A
// failed query is logged and treated as no optional variants. Only the
// error of a done ctx is returned, and then nothing is cached.
func (c *HTTPClient) LoadCapabilities(ctx context.Context) error {
	c.capsMu.Lock()
	defer c.capsMu.Unlock()
	if c.caps != nil {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, capabilitiesTimeout)
	defer cancel()

	variants, err := c.fetchCapabilities(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("engine capabilities unavailable", "error", err)
		c.caps = make(map[privacy.Variant]bool)
		return nil
	}

	c.caps = make(map[privacy.Variant]bool, len(variants))
	for _, name := range variants {
		c.caps[privacy.Variant(name)] = true
	}
	c.logger.Debug("engine capabilities", "variants", variants)
	return nil
}

// Supports reports a loaded capability. Without a prior LoadCapabilities it
// loads them with a background context.
func (c *HTTPClient) Supports(v privacy.Variant) bool {
	c.capsMu.Lock()
	loaded := c.caps != nil
	c.capsMu.Unlock()
	if !loaded {
		_ = c.LoadCapabilities(context.Background())
	}

	c.capsMu.Lock()
	defer c.capsMu.Unlock()
	return c.caps[v]
}

func (c *HTTPClient) fetchCapabilities(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/capabilities", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, excerpt(body))
	}

	var caps wireCapabilities
	if err := json.NewDecoder(resp.Body).Decode(&caps); err != nil {
		return nil, fmt.Errorf("failed to decode capabilities: %w", err)
	}
	return caps.Variants, nil
}

// Ping checks that the engine service answers its capabilities endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if _, err := c.fetchCapabilities(ctx); err != nil {
		return fmt.Errorf("engine at %s unreachable: %w", c.baseURL, err)
	}
	return nil
}

// Anonymize posts the request to /v1/anonymize. HTTP 422 and an
// "infeasible" status both yield a nil table.
func (c *HTTPClient) Anonymize(ctx context.Context, r *Request) (*dataset.Table, error) {
	body, err := encodeRequest(r)
	if err != nil {
		return nil, failure.Engine("failed to encode request", err)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/anonymize", bytes.NewReader(body))
	if err != nil {
		return nil, failure.Engine("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.Inject(ctx, req.Header)

	c.logger.Debug("sending request to engine",
		"job_id", r.JobID,
		"rows", len(r.Table.Rows),
		"bytes", len(body),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, failure.Engine("engine request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Engine("failed to read engine response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Info("engine reported constraints infeasible", "job_id", r.JobID)
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, failure.Engine(fmt.Sprintf("engine returned status %d: %s", resp.StatusCode, excerpt(respBody)), nil)
	}

	return decodeResponse(respBody)
}
