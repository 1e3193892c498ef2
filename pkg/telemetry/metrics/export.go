package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// WriteTextfile writes the registry to path in the text exposition format.
// The file is replaced atomically so a node-exporter scrape never sees a
// partial file.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %q: %w", path, err)
	}
	return nil
}

// Push pushes the registry to a Pushgateway, replacing the previous push for
// the same job.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if c == nil {
		return nil
	}
	if err := push.New(url, job).Gatherer(c.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

// Flush exports the registry to every configured destination.
func (c *Collector) Flush(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}

	var errs []error
	if c.config.Textfile != "" {
		errs = append(errs, c.WriteTextfile(c.config.Textfile))
	}
	if c.config.PushURL != "" {
		errs = append(errs, c.Push(ctx, c.config.PushURL, c.config.PushJob))
	}
	return errors.Join(errs...)
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
