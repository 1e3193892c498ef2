package tracing

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator returns the global text map propagator. It is a no-op until an
// enabled tracer is created.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Inject writes the trace context of ctx into outgoing HTTP headers as
// traceparent and tracestate.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// Extract returns ctx carrying the trace context found in headers.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Environ returns the trace context of ctx as KEY=VALUE pairs for a child
// process, e.g. TRACEPARENT=00-...-01. It is empty without a valid span in ctx.
func Environ(ctx context.Context) []string {
	carrier := propagation.MapCarrier{}
	Propagator().Inject(ctx, carrier)

	keys := carrier.Keys()
	sort.Strings(keys)

	var env []string
	for _, key := range keys {
		env = append(env, strings.ToUpper(key)+"="+carrier.Get(key))
	}
	return env
}
