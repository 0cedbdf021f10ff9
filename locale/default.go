package locale

import "time"

// Default is the process wide facility used by the package level helpers.
var Default = New() //nolint:gochecknoglobals // shared cache for the process lifetime

// Compare orders a and b under locale using the Default facility.
func Compare(locale, a, b string) (int, error) {
	return Default.Compare(locale, a, b)
}

// FormatDate renders t under locale using the Default facility.
func FormatDate(locale string, t time.Time) (string, error) {
	return Default.FormatDate(locale, t)
}
