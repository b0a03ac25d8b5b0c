package opentelemetry

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationPrefix prefixes every tracer name created by the library.
const InstrumentationPrefix = "github.com/LerianStudio/lib-pawn/"

// Tracer returns tracer when non-nil, otherwise the global tracer for
// component.
//
//nolint:ireturn
func Tracer(tracer trace.Tracer, component string) trace.Tracer {
	if tracer != nil {
		return tracer
	}

	return otel.Tracer(InstrumentationPrefix + component)
}

// HandleSpanBusinessErrorEvent records a recoverable domain error as an event
// without failing the span.
func HandleSpanBusinessErrorEvent(span trace.Span, eventName string, err error) {
	if span != nil && err != nil {
		span.AddEvent(eventName, trace.WithAttributes(attribute.String("error", err.Error())))
	}
}

// HandleSpanEvent adds an event to the span.
func HandleSpanEvent(span trace.Span, eventName string, attributes ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(eventName, trace.WithAttributes(attributes...))
	}
}

// HandleSpanError marks the span failed and records err.
func HandleSpanError(span trace.Span, message string, err error) {
	if span != nil && err != nil {
		span.SetStatus(codes.Error, message+": "+err.Error())
		span.RecordError(err)
	}
}

// SetSpanAttributesFromStruct stores valueStruct as JSON under key with every
// sensitive field replaced by ObfuscatedValue.
func SetSpanAttributesFromStruct(span trace.Span, key string, valueStruct any) error {
	if span == nil {
		return nil
	}

	raw, err := json.Marshal(valueStruct)
	if err != nil {
		return fmt.Errorf("marshal span attribute %s: %w", key, err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("unmarshal span attribute %s: %w", key, err)
	}

	masked, err := json.Marshal(obfuscate(generic))
	if err != nil {
		return fmt.Errorf("marshal masked span attribute %s: %w", key, err)
	}

	span.SetAttributes(attribute.String(key, string(masked)))

	return nil
}
