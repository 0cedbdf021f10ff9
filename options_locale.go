package lingo

import (
	"context"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/locale"
	"github.com/pitabwire/lingo/localization"
)

// WithLocaleFacility sets the facility serving comparison and date formatting.
func WithLocaleFacility(facility *locale.Facility) Option {
	return func(_ context.Context, s *Service) {
		s.facility = facility
	}
}

// WithDefaultLocale sets the locale used when a request names none.
func WithDefaultLocale(tag string) Option {
	return func(_ context.Context, s *Service) {
		s.defaultLocale = tag
	}
}

// WithTranslations loads API messages for languages from folder.
// Without a folder the configured message directory is used, and without either
// the embedded messages are loaded.
func WithTranslations(folder string, languages ...string) Option {
	return func(ctx context.Context, s *Service) {
		if folder == "" {
			if cfg, ok := s.Config().(config.ConfigurationLocale); ok {
				folder = cfg.MessageDir()
				if len(languages) == 0 {
					languages = cfg.SupportedLocales()
				}
			}
		}

		if folder != "" {
			s.localization = localization.NewManager(folder, languages...)
			return
		}

		manager, err := localization.NewDefaultManager()
		if err != nil {
			s.Log(ctx).WithError(err).Panic("could not load embedded messages")
		}
		s.localization = manager
	}
}

// LocaleFacility returns the facility shared by every request.
func (s *Service) LocaleFacility() *locale.Facility {
	return s.facility
}

// Localization returns the message manager used for API errors.
func (s *Service) Localization() localization.Manager {
	return s.localization
}

// DefaultLocale is the configured default, or the host locale when none is set.
func (s *Service) DefaultLocale() string {
	if s.defaultLocale != "" {
		return s.defaultLocale
	}
	return locale.DefaultTag().String()
}

func (s *Service) facilityOptions() []locale.Option {
	opts := []locale.Option{locale.WithMeterProvider(s.meterProvider)}
	if cfg, ok := s.Config().(config.ConfigurationLocale); ok {
		opts = append(opts, locale.WithLocation(cfg.TimeZone()))
	}
	return opts
}
