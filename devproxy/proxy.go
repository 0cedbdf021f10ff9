// Package devproxy forwards backend paths to a local server while the frontend is developed.
package devproxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pitabwire/util"
)

var (
	ErrNoTarget   = errors.New("dev proxy target is not set")
	ErrNoPrefixes = errors.New("dev proxy has no path prefixes")
)

// Config declares which path prefixes are forwarded and where to.
type Config struct {
	Target   string
	Prefixes []string
	// ChangeOrigin sends the target's host instead of the client's Host header.
	ChangeOrigin bool
}

// DefaultConfig forwards /api and /download to http://localhost:8000.
func DefaultConfig() Config {
	return Config{
		Target:   "http://localhost:8000",
		Prefixes: []string{"/api", "/download"},
	}
}

// Proxy is an http.Handler forwarding matching requests to the configured target.
type Proxy struct {
	target   *url.URL
	prefixes []string
	reverse  *httputil.ReverseProxy
}

// New validates cfg and builds the proxy.
func New(cfg Config) (*Proxy, error) {
	if strings.TrimSpace(cfg.Target) == "" {
		return nil, ErrNoTarget
	}

	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid dev proxy target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid dev proxy target %q: scheme and host are required", cfg.Target)
	}

	prefixes := make([]string, 0, len(cfg.Prefixes))
	for _, p := range cfg.Prefixes {
		p = "/" + strings.Trim(strings.TrimSpace(p), "/")
		if p != "/" {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return nil, ErrNoPrefixes
	}

	p := &Proxy{target: target, prefixes: prefixes}
	p.reverse = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if !cfg.ChangeOrigin {
				pr.Out.Host = pr.In.Host
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			util.Log(r.Context()).WithError(err).
				WithField("path", r.URL.Path).
				WithField("target", target.String()).
				Warn("dev proxy could not reach target")
			w.WriteHeader(http.StatusBadGateway)
		},
	}

	return p, nil
}

// Target is the address requests are forwarded to.
func (p *Proxy) Target() *url.URL {
	u := *p.target
	return &u
}

// Prefixes lists the normalized path prefixes handled by the proxy.
func (p *Proxy) Prefixes() []string {
	return append([]string(nil), p.prefixes...)
}

// Matches reports whether path starts with one of the prefixes.
// Matching is by plain string prefix, so "/api" also takes "/apis".
func (p *Proxy) Matches(path string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ServeHTTP forwards matching requests and answers 404 to everything else.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.Matches(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	p.reverse.ServeHTTP(w, r)
}

// Middleware forwards matching requests and hands the rest to next.
func (p *Proxy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.Matches(r.URL.Path) {
			p.reverse.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Mount installs the proxy ahead of routing on router.
// It must be called before any route is registered.
func (p *Proxy) Mount(router chi.Router) {
	router.Use(p.Middleware)
}
