package locale

import (
	"strings"

	golocale "github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
)

// FallbackTag is used when the host does not advertise a usable locale.
var FallbackTag = language.AmericanEnglish //nolint:gochecknoglobals // read-only default

// hostLocales reports the user's preferred locales, most preferred first.
var hostLocales = golocale.GetLocales //nolint:gochecknoglobals // replaced in tests

// ParseTag parses a BCP 47 locale identifier.
// The error of the underlying parser is returned as is.
func ParseTag(locale string) (language.Tag, error) {
	return language.Parse(locale)
}

// DefaultTag returns the first usable locale the host advertises, FallbackTag otherwise.
func DefaultTag() language.Tag {
	locales, err := hostLocales()
	if err != nil {
		return FallbackTag
	}

	for _, value := range locales {
		if tag, ok := parseHostLocale(value); ok {
			return tag
		}
	}
	return FallbackTag
}

// parseHostLocale drops modifiers such as "@euro" that survive go-locale's normalization.
func parseHostLocale(value string) (language.Tag, bool) {
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}

	value = strings.TrimSpace(value)
	if value == "" || value == "C" || value == "POSIX" {
		return language.Und, false
	}

	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}
