package middleware

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

// defaultTracerName is the tracer name used when none is configured.
const defaultTracerName = "dispatchkit"

// OTelConfig configures the OpenTelemetry interceptor.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "dispatchkit").
	TracerName string

	// IncludeParams includes wildcard captures as span attributes.
	// Disabled by default since captures may carry sensitive values.
	IncludeParams bool

	// AttributeExtractor extracts custom attributes from the invocation.
	AttributeExtractor func(inv *dispatch.Invocation) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry interceptor.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) { c.TracerName = name }
}

// WithIncludeParams enables recording wildcard captures on spans.
func WithIncludeParams(include bool) OTelOption {
	return func(c *OTelConfig) { c.IncludeParams = include }
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(fn func(inv *dispatch.Invocation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) { c.AttributeExtractor = fn }
}

// OpenTelemetry creates an interceptor that opens a span per dispatch.
//
// The span is named after the action's registered path; the requested path,
// invocation ID, and optionally the wildcard captures are recorded as
// attributes. Errors from downstream set the span status.
//
// The tracer comes from the global OpenTelemetry tracer provider; configure
// it before dispatching begins:
//
//	otel.SetTracerProvider(tp)
//	r.AddInterceptor("trace", middleware.OpenTelemetry())
func OpenTelemetry(opts ...OTelOption) dispatch.Interceptor {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(inv *dispatch.Invocation) (any, error) {
		attrs := []attribute.KeyValue{
			attribute.String("dispatch.action", inv.Action().Path()),
			attribute.String("dispatch.path", inv.Path()),
			attribute.String("dispatch.invocation_id", inv.ID()),
		}
		if config.IncludeParams {
			for name, value := range inv.PathParams() {
				attrs = append(attrs, attribute.String("dispatch.param."+name, value))
			}
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(inv)...)
		}

		_, span := config.tracer.Start(
			inv.Context(),
			"dispatch "+inv.Action().Path(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		res, err := inv.Proceed()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return res, err
	}
}
