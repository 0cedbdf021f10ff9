// Package browser holds the operations a page would run against its host browser:
// reading the current address and opening another one in a new tab.
package browser

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/muhlemmer/httpforwarded"
)

// CurrentURI returns the full address the client used for r.
// Scheme and host come from the Forwarded header, then X-Forwarded-Proto and
// X-Forwarded-Host, then the request itself. Path and query are left untouched.
func CurrentURI(r *http.Request) string {
	scheme, host := schemeAndHost(r)

	u := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	return u.String()
}

func schemeAndHost(r *http.Request) (string, string) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if v := firstValue(r.Header.Get("X-Forwarded-Proto")); v != "" {
		scheme = v
	}
	if v := firstValue(r.Header.Get("X-Forwarded-Host")); v != "" {
		host = v
	}

	fwd, err := httpforwarded.ParseFromRequest(r)
	if err == nil {
		if v := fwd["proto"]; len(v) > 0 && v[0] != "" {
			scheme = v[0]
		}
		if v := fwd["host"]; len(v) > 0 && v[0] != "" {
			host = v[0]
		}
	}

	return strings.ToLower(scheme), host
}

func firstValue(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
