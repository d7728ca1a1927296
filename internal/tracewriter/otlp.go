package tracewriter

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/thing-king/timetrace/internal/trace"
)

// otlpMirror best-effort-forwards each emitted event as a zero-duration
// span, for external trace viewers. It is entirely optional: the JSON-line
// trace file remains the sole contract the replay TUI relies on (§4.B).
type otlpMirror struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// newOTLPMirror returns nil (disabled) unless OTEL_EXPORTER_OTLP_ENDPOINT is
// set, matching the teacher's NewOTLPExporter gating.
func newOTLPMirror(ctx context.Context) *otlpMirror {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return nil
	}

	var endpointHost, urlPath string
	var useInsecure bool
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			log.Printf("tracewriter: invalid OTEL_EXPORTER_OTLP_ENDPOINT: %v", err)
			return nil
		}
		endpointHost = parsed.Host
		urlPath = parsed.Path
		useInsecure = parsed.Scheme == "http"
	} else {
		endpointHost = endpoint
		useInsecure = true
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpointHost)}
	if useInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if urlPath != "" && urlPath != "/v1/traces" {
		opts = append(opts, otlptracehttp.WithURLPath(urlPath))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		log.Printf("tracewriter: failed to create OTLP exporter: %v", err)
		return nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName()),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	return &otlpMirror{provider: provider, tracer: provider.Tracer("timetrace/writer")}
}

func serviceName() string {
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		return v
	}
	return "timetrace"
}

// mirror starts and immediately ends a span for e, tagging file/line/col/
// depth as attributes. Failures are logged, never propagated — mirroring
// must never affect emit.
func (m *otlpMirror) mirror(e trace.Event) {
	if m == nil {
		return
	}
	name := fmt.Sprintf("%s:%s", e.Scope, e.Desc)
	_, span := m.tracer.Start(context.Background(), name, oteltrace.WithTimestamp(time.Now()))
	span.SetAttributes(
		attribute.String("file", e.File),
		attribute.Int("line", e.Line),
		attribute.Int("col", e.Col),
		attribute.Int("depth", e.Depth),
	)
	span.End(oteltrace.WithTimestamp(time.Now()))
}

// shutdown flushes and closes the mirror's exporter.
func (m *otlpMirror) shutdown(ctx context.Context) {
	if m == nil {
		return
	}
	if err := m.provider.Shutdown(ctx); err != nil {
		log.Printf("tracewriter: OTLP shutdown: %v", err)
	}
}
