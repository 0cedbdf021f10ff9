// Package telemetry holds the OpenTelemetry instruments shared across lingo.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Units are encoded according to the case-sensitive abbreviations from the
// Unified Code for Units of Measure: http://unitsofmeasure.org/ucum.html.
const unitDimensionless = "1"

//nolint:gochecknoglobals // OpenTelemetry attribute keys must be global for reuse
var (
	AttrPackageKey = attribute.Key("lingo_package")
	AttrCacheKey   = attribute.Key("lingo_cache")
	AttrLocaleKey  = attribute.Key("lingo_locale")
)

// Meter returns the meter for pkg from provider, the global provider when nil.
func Meter(provider metric.MeterProvider, pkg string) metric.Meter {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return provider.Meter(pkg, metric.WithInstrumentationAttributes(AttrPackageKey.String(pkg)))
}

// DimensionlessMeasure creates a simple counter for dimensionless measurements.
func DimensionlessMeasure(meter metric.Meter, pkg string, meterName string, description string) metric.Int64Counter {
	m, err := meter.Int64Counter(
		pkg+meterName,
		metric.WithDescription(description),
		metric.WithUnit(unitDimensionless),
	)
	if err != nil {
		// The only possible errors are from invalid instrument names,
		// and those are programming errors that will be found during testing.
		panic(fmt.Sprintf("fullName=%q: %v", pkg+meterName, err))
	}
	return m
}
