package lingo

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
)

// WithMeterProvider records HTTP and locale cache metrics on provider instead of the global one.
// It applies to the facility only when the service builds it.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(_ context.Context, s *Service) {
		s.meterProvider = provider
	}
}

// instrument wraps h with OpenTelemetry HTTP server spans and metrics.
func (s *Service) instrument(h http.Handler) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if s.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(s.meterProvider))
	}
	return otelhttp.NewHandler(h, s.Name(), opts...)
}
