package locale

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
)

// ErrInvalidTimestamp is returned when a value cannot be turned into a point in time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Layouts render numeric year, two-digit day and abbreviated month.
const (
	layoutMonthFirst = "Jan 02, 2006"
	layoutDayFirst   = "02 Jan 2006"
	layoutDayDot     = "02. Jan 2006"
	layoutRoot       = "2006 Jan 02"
)

//nolint:gochecknoglobals // static locale data
var dateLayouts = map[string]string{
	"en": layoutMonthFirst,
	"de": layoutDayDot,
	"da": layoutDayDot,
	"nb": layoutDayDot,
	"nn": layoutDayDot,
	"fi": layoutDayDot,
	"cs": layoutDayDot,
	"sk": layoutDayDot,
	"sl": layoutDayDot,
	"hr": layoutDayDot,
	"fr": layoutDayFirst,
	"es": layoutDayFirst,
	"ca": layoutDayFirst,
	"it": layoutDayFirst,
	"nl": layoutDayFirst,
	"ru": layoutDayFirst,
	"uk": layoutDayFirst,
	"pl": layoutDayFirst,
	"ro": layoutDayFirst,
	"sv": layoutDayFirst,
	"tr": layoutDayFirst,
	"el": layoutDayFirst,
	"bg": layoutDayFirst,
	"id": layoutDayFirst,
	"sw": layoutDayFirst,
	"pt": "02 de Jan de 2006",
	"hu": "2006. Jan 02.",
	"lt": "2006 Jan 02",
	"ja": "2006年1月02日",
	"zh": "2006年1月02日",
	"ko": "2006년 1월 02일",
}

// English speaking regions that put the day first.
//
//nolint:gochecknoglobals // static locale data
var dayFirstEnglish = map[string]bool{
	"GB": true, "AU": true, "NZ": true, "IE": true, "IN": true,
	"ZA": true, "SG": true, "KE": true, "NG": true, "TZ": true,
}

//nolint:gochecknoglobals // computed once from monday's locale table
var mondayLocales = sync.OnceValue(func() []monday.Locale {
	locales := monday.ListLocales()
	sort.Slice(locales, func(i, j int) bool { return locales[i] < locales[j] })
	return locales
})

// DateFormatter renders dates for one locale with a fixed field set:
// numeric year, two-digit day and abbreviated month name.
type DateFormatter struct {
	tag       language.Tag
	layout    string
	names     monday.Locale
	translate bool
	location  *time.Location
}

// NewDateFormatter builds a formatter for tag that renders in loc.
func NewDateFormatter(tag language.Tag, loc *time.Location) *DateFormatter {
	if loc == nil {
		loc = time.Local
	}

	layout := dateLayout(tag)
	names, ok := monthNames(tag)

	return &DateFormatter{
		tag:       tag,
		layout:    layout,
		names:     names,
		translate: ok && strings.Contains(layout, "Jan"),
		location:  loc,
	}
}

// Tag is the locale the formatter was built for.
func (f *DateFormatter) Tag() language.Tag {
	return f.tag
}

// Layout is the Go reference layout used by the formatter.
func (f *DateFormatter) Layout() string {
	return f.layout
}

// Format renders t in the formatter's locale and time zone.
func (f *DateFormatter) Format(t time.Time) string {
	t = t.In(f.location)
	if f.translate {
		return monday.Format(t, f.layout, f.names)
	}
	return t.Format(f.layout)
}

func dateLayout(tag language.Tag) string {
	base, _ := tag.Base()
	layout, ok := dateLayouts[base.String()]
	if !ok {
		return layoutRoot
	}

	if layout == layoutMonthFirst {
		region, _ := tag.Region()
		if dayFirstEnglish[region.String()] {
			return layoutDayFirst
		}
	}
	return layout
}

// monthNames picks the monday locale supplying month abbreviations for tag.
func monthNames(tag language.Tag) (monday.Locale, bool) {
	base, _ := tag.Base()
	region, _ := tag.Region()

	exact := monday.Locale(base.String() + "_" + region.String())
	prefix := base.String() + "_"

	var sameLanguage monday.Locale
	for _, l := range mondayLocales() {
		if l == exact {
			return l, true
		}
		if sameLanguage == "" && strings.HasPrefix(string(l), prefix) {
			sameLanguage = l
		}
	}

	return sameLanguage, sameLanguage != ""
}

// FromEpochMillis converts milliseconds since the Unix epoch to a time.
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ParseTimestamp accepts RFC 3339, a bare date, year-month or year (UTC), or epoch milliseconds.
// A four digit value is a year, so "2024" is 2024-01-01 and not 2024ms after the epoch.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly, "2006-01", "2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return FromEpochMillis(ms), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}
