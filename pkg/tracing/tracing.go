// Package tracing opens OpenTelemetry spans around service operations.
//
// Spans go to whatever TracerProvider is registered globally with otel.
// Setup installs an SDK provider; with none registered spans are no-ops.
package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for darzi spans.
const TracerName = "github.com/darzi-app/darzi"

// Attribute keys.
const (
	AttrOrderID      = "darzi.order.id"
	AttrCustomerCode = "darzi.customer.code"
	AttrCategory     = "darzi.category.id"
	AttrStatusFrom   = "darzi.status.from"
	AttrStatusTo     = "darzi.status.to"
	AttrReportType   = "darzi.report.type"
	AttrReportFormat = "darzi.report.format"
	AttrResultCount  = "darzi.result.count"
)

// Tracer is the tracer darzi spans are started on.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// Start starts a span named name as a child of any span in ctx.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it. Expected outcomes such as
// validation failures are recorded as events without marking the span failed.
func End(span trace.Span, err error, expected ...error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			span.AddEvent("rejected", trace.WithAttributes(attribute.String("error", err.Error())))
			return
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func OrderID(id string) attribute.KeyValue        { return attribute.String(AttrOrderID, id) }
func CustomerCode(code string) attribute.KeyValue { return attribute.String(AttrCustomerCode, code) }
func Category(id string) attribute.KeyValue       { return attribute.String(AttrCategory, id) }
func StatusFrom(s string) attribute.KeyValue      { return attribute.String(AttrStatusFrom, s) }
func StatusTo(s string) attribute.KeyValue        { return attribute.String(AttrStatusTo, s) }
func ReportType(t string) attribute.KeyValue      { return attribute.String(AttrReportType, t) }
func ReportFormat(f string) attribute.KeyValue    { return attribute.String(AttrReportFormat, f) }
func ResultCount(n int) attribute.KeyValue        { return attribute.Int(AttrResultCount, n) }
