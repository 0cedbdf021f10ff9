package lingo

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/pitabwire/util"
	"github.com/rs/cors"
	"github.com/rs/xid"

	"github.com/pitabwire/lingo/config"
	lhttp "github.com/pitabwire/lingo/localization/interceptors/http"
	"github.com/pitabwire/lingo/page"
)

const (
	requestIDHeader = "X-Request-Id"

	defaultHealthCheckPath = "/healthz"
)

// Handler builds the service router. Run uses it; tests can serve it directly.
func (s *Service) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.requestIDMiddleware)

	// Proxied requests skip the language middleware and the app routes.
	if s.proxy != nil {
		s.proxy.Mount(router)
	}

	router.Group(func(r chi.Router) {
		r.Use(lhttp.LanguageHTTPMiddleware)

		r.Get(s.healthPath(), s.HandleHealth)

		r.Route("/intl", func(r chi.Router) {
			r.Use(s.rateLimitMiddleware())
			r.Get("/compare", s.handleCompare)
			r.Post("/sort", s.handleSort)
			r.Get("/format-date", s.handleFormatDate)
			r.Get("/location", s.handleLocation)
			r.Get("/stats", s.handleStats)
		})

		if s.appHandler != nil {
			r.Handle("/*", s.appHandler)
			return
		}

		shell := s.shellHandler()
		r.Get("/*", shell)
		r.Head("/*", shell)
	})

	return s.applyCORSIfEnabled(s.instrument(router))
}

func (s *Service) healthPath() string {
	if s.healthCheckPath == "" || s.healthCheckPath == "/" {
		return defaultHealthCheckPath
	}
	return s.healthCheckPath
}

func (s *Service) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		log := s.Log(r.Context()).WithField("request_id", id)
		ctx := util.ContextWithLogger(r.Context(), log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) applyCORSIfEnabled(h http.Handler) http.Handler {
	cfg, ok := s.Config().(config.ConfigurationFrontend)
	if !ok || len(cfg.AllowedOrigins()) == 0 {
		return h
	}

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
		},
		AllowedHeaders: []string{
			"Origin",
			"Accept",
			"Accept-Language",
			"Content-Type",
			"X-Requested-With",
			requestIDHeader,
		},
		ExposedHeaders: []string{
			"Content-Length",
			requestIDHeader,
		},
	}).Handler(h)
}

// shellHandler serves the application shell with the user configuration embedded.
// The document is rendered once, on first request.
func (s *Service) shellHandler() http.HandlerFunc {
	render := sync.OnceValues(func() ([]byte, error) {
		shell := s.shell
		if len(shell) == 0 {
			shell = []byte(page.DefaultShell)
		}

		var buf bytes.Buffer
		if err := page.Render(&buf, bytes.NewReader(shell), s.userConfig); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := render()
		if err != nil {
			util.Log(r.Context()).WithError(err).Error("could not render application shell")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
