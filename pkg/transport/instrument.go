package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/fitness-client/internal/serviceerr"
)

const (
	HeaderRequestID = "X-Request-ID"

	attrCategory = "category"
	categoryOK   = "ok"
)

// Instrument is the outermost stage: it tags the request with a request ID,
// opens a client span, propagates the trace context and records the outcome
// category in the request count and duration meters.
func Instrument(app commoncfg.Application) (Middleware, error) {
	meter := otel.Meter(
		"fitness-client/"+app.Name,
		metric.WithInstrumentationVersion(otel.Version()),
		metric.WithInstrumentationAttributes(otlp.CreateAttributesFrom(app)...),
	)

	counter, err := meter.Int64Counter(
		"http.client.request_count",
		metric.WithDescription("Outgoing request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return nil, oops.In("Transport").Wrapf(err, "creating request_count meter")
	}

	hist, err := meter.Int64Histogram(
		"http.client.duration",
		metric.WithDescription("Outgoing end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return nil, oops.In("Transport").Wrapf(err, "creating duration meter")
	}

	traceAttrs := otlp.CreateAttributesFrom(app)
	tracer := otel.Tracer("fitness-client/transport", trace.WithInstrumentationAttributes(traceAttrs...))

	return func(next Handler) Handler {
		return func(req *http.Request) (*http.Response, error) {
			requestID := uuid.NewString()
			ctx := slogctx.With(req.Context(),
				commoncfg.AttrRequestID, requestID,
				"method", req.Method,
				"path", req.URL.Path,
			)

			ctx, span := tracer.Start(ctx, req.Method+" "+req.URL.Path,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.path", req.URL.Path),
				),
			)
			defer span.End()

			req = req.Clone(ctx)
			req.Header.Set(HeaderRequestID, requestID)
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

			start := time.Now()
			slogctx.Debug(ctx, "Sending request")
			resp, err := next(req)
			elapsed := time.Since(start)

			category := categoryOK
			var classified *serviceerr.Error
			if errors.As(err, &classified) {
				category = string(classified.Err)
			} else if err != nil {
				category = string(serviceerr.CodeUnknown)
			}

			attrs := metric.WithAttributes(
				otlp.CreateAttributesFrom(app,
					attribute.String(attrCategory, category),
					attribute.String("http.request.method", req.Method),
				)...,
			)
			counter.Add(ctx, 1, attrs)
			hist.Record(ctx, elapsed.Milliseconds(), attrs)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, category)
				slogctx.Warn(ctx, "Request failed", attrCategory, category, "duration", elapsed, "error", err)
				return nil, err
			}

			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			slogctx.Debug(ctx, "Request finished", "status", resp.StatusCode, "duration", elapsed)

			return resp, nil
		}
	}, nil
}
