package locale

import (
	"context"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/collate"

	"github.com/pitabwire/lingo/telemetry"
	"github.com/pitabwire/lingo/workerpool"
)

const (
	instrumentationName = "github.com/pitabwire/lingo/locale"

	cacheCollator  = "collator"
	cacheFormatter = "formatter"
)

// Facility gives locale-aware comparison and date formatting.
// Collators and date formatters are built lazily, once per locale identifier,
// and reused for the lifetime of the Facility.
type Facility struct {
	location       *time.Location
	collateOptions []collate.Option
	meterProvider  metric.MeterProvider
	constructions  metric.Int64Counter

	collators  *Memo[*Collator]
	formatters *Memo[*DateFormatter]
}

// Option configures a Facility.
type Option func(*Facility)

// WithLocation sets the time zone dates are rendered in. Defaults to the host zone.
func WithLocation(loc *time.Location) Option {
	return func(f *Facility) {
		if loc != nil {
			f.location = loc
		}
	}
}

// WithCollateOptions passes options such as collate.IgnoreCase to every collator built.
func WithCollateOptions(opts ...collate.Option) Option {
	return func(f *Facility) {
		f.collateOptions = append(f.collateOptions, opts...)
	}
}

// WithMeterProvider records cache constructions on provider instead of the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(f *Facility) {
		f.meterProvider = provider
	}
}

// New creates a Facility with empty caches.
func New(opts ...Option) *Facility {
	f := &Facility{location: time.Local}
	for _, opt := range opts {
		opt(f)
	}

	f.constructions = telemetry.DimensionlessMeasure(
		telemetry.Meter(f.meterProvider, instrumentationName),
		instrumentationName, "/constructions", "Collators and date formatters built, by cache and locale.")

	f.collators = NewMemo(func(locale string) (*Collator, error) {
		tag, err := ParseTag(locale)
		if err != nil {
			return nil, err
		}
		f.recordConstruction(cacheCollator, locale)
		return NewCollator(tag, f.collateOptions...), nil
	})

	f.formatters = NewMemo(func(locale string) (*DateFormatter, error) {
		tag, err := ParseTag(locale)
		if err != nil {
			return nil, err
		}
		f.recordConstruction(cacheFormatter, locale)
		return NewDateFormatter(tag, f.location), nil
	})

	return f
}

func (f *Facility) recordConstruction(cache, locale string) {
	f.constructions.Add(context.Background(), 1, metric.WithAttributes(
		telemetry.AttrCacheKey.String(cache),
		telemetry.AttrLocaleKey.String(locale),
	))
}

// Collator returns the shared collator for locale.
func (f *Facility) Collator(locale string) (*Collator, error) {
	return f.collators.Get(locale)
}

// DateFormatter returns the shared date formatter for locale.
func (f *Facility) DateFormatter(locale string) (*DateFormatter, error) {
	return f.formatters.Get(locale)
}

// Compare orders a and b by the collation rules of locale.
// The result is negative when a sorts first, zero when equal and positive otherwise.
func (f *Facility) Compare(locale, a, b string) (int, error) {
	c, err := f.Collator(locale)
	if err != nil {
		return 0, err
	}
	return c.Compare(a, b), nil
}

// Sort orders values in place by the collation rules of locale.
func (f *Facility) Sort(locale string, values []string) error {
	c, err := f.Collator(locale)
	if err != nil {
		return err
	}
	c.Sort(values)
	return nil
}

// FormatDate renders t with year, two-digit day and abbreviated month for locale.
func (f *Facility) FormatDate(locale string, t time.Time) (string, error) {
	df, err := f.DateFormatter(locale)
	if err != nil {
		return "", err
	}
	return df.Format(t), nil
}

// Stats describes what the caches currently hold.
type Stats struct {
	CollatorsBuilt   int64    `json:"collators_built"`
	FormattersBuilt  int64    `json:"formatters_built"`
	CollatorLocales  []string `json:"collator_locales"`
	FormatterLocales []string `json:"formatter_locales"`
}

// Stats reports construction counts and the locales each cache holds.
func (f *Facility) Stats() Stats {
	return Stats{
		CollatorsBuilt:   f.collators.Built(),
		FormattersBuilt:  f.formatters.Built(),
		CollatorLocales:  f.collators.Keys(),
		FormatterLocales: f.formatters.Keys(),
	}
}

// WarmUp builds collators and formatters for locales on pool ahead of first use.
// A nil pool builds them on the calling goroutine.
func (f *Facility) WarmUp(ctx context.Context, pool workerpool.WorkerPool, locales ...string) error {
	tasks := make([]func(context.Context) error, 0, len(locales))
	for _, locale := range locales {
		tasks = append(tasks, func(_ context.Context) error {
			if _, err := f.Collator(locale); err != nil {
				return err
			}
			_, err := f.DateFormatter(locale)
			return err
		})
	}

	err := workerpool.SubmitAll(ctx, pool, tasks...)
	log := util.Log(ctx).WithField("locales", locales)
	if err != nil {
		log.WithError(err).Warn("locale warm up incomplete")
		return err
	}

	log.Debug("locale caches warmed up")
	return nil
}
