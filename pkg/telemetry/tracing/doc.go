// Package tracing exports OpenTelemetry spans for job runs.
//
// A run is one trace: a "job.run" span with a child span per stage
// (manifest, paths, input, attributes, privacy, engine, output). The W3C
// trace context of the engine stage is injected into the HTTP engine
// request and into the exec engine's environment as TRACEPARENT, so an
// instrumented engine joins the same trace.
//
// Tracing is disabled by default. When disabled, New returns a tracer backed
// by the no-op provider, and a nil *Tracer behaves the same way.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    insecure: true
//	    sampler: always
package tracing
