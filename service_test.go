package lingo_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/pitabwire/lingo"
	"github.com/pitabwire/lingo/browser"
	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/devproxy"
	"github.com/pitabwire/lingo/locale"
	"github.com/pitabwire/lingo/page"
	"github.com/pitabwire/lingo/ratelimiter"
)

const testUserConfig = `{"theme":"dark","features":["a","b"]}`

// ServiceTestSuite exercises the HTTP surface of the service.
type ServiceTestSuite struct {
	suite.Suite
}

// TestServiceSuite runs the service test suite.
func TestServiceSuite(t *testing.T) {
	suite.Run(t, &ServiceTestSuite{})
}

type recordingOpener struct {
	mu   sync.Mutex
	uris []string
}

func (o *recordingOpener) Open(_ context.Context, uri string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uris = append(o.uris, uri)
	return nil
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.uris...)
}

func (s *ServiceTestSuite) newService(opts ...lingo.Option) (context.Context, *lingo.Service) {
	base := []lingo.Option{
		lingo.WithConfig(&config.ConfigurationDefault{ServiceName: "lingo-test"}),
		lingo.WithLocaleFacility(locale.New(locale.WithLocation(time.UTC))),
		lingo.WithDefaultLocale("en-US"),
		lingo.WithUserConfig(testUserConfig),
		lingo.WithBrowserOpener(&recordingOpener{}),
	}

	ctx, svc := lingo.NewService("lingo-test", append(base, opts...)...)
	s.T().Cleanup(func() { svc.Stop(ctx) })
	return ctx, svc
}

func (s *ServiceTestSuite) serve(svc *lingo.Service, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServiceTestSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (s *ServiceTestSuite) TestServiceFromContext() {
	ctx, svc := s.newService()

	s.Equal("lingo-test", svc.Name())
	s.Same(svc, lingo.FromContext(ctx))
	s.Nil(lingo.FromContext(context.Background()))
	s.NotNil(svc.LocaleFacility())
	s.NotNil(svc.Localization())
	s.NotNil(svc.WorkerPool())
	s.Equal("en-US", svc.DefaultLocale())
	s.Equal(testUserConfig, svc.UserConfig())
}

func (s *ServiceTestSuite) TestCompareEndpoint() {
	_, svc := s.newService()

	testCases := []struct {
		name           string
		target         string
		acceptLanguage string
		wantStatus     int
		wantResult     float64
		wantLocale     string
		wantError      string
	}{
		{
			name:       "before",
			target:     "/intl/compare?a=apple&b=banana&lang=en",
			wantStatus: http.StatusOK,
			wantResult: -1,
			wantLocale: "en",
		},
		{
			name:       "after",
			target:     "/intl/compare?a=banana&b=apple&lang=en",
			wantStatus: http.StatusOK,
			wantResult: 1,
			wantLocale: "en",
		},
		{
			name:       "equal",
			target:     "/intl/compare?a=same&b=same",
			wantStatus: http.StatusOK,
			wantResult: 0,
			wantLocale: "en-US",
		},
		{
			name:           "locale negotiated from header",
			target:         "/intl/compare?a=%C3%B6&b=z",
			acceptLanguage: "fr;q=0.5, sv-SE",
			wantStatus:     http.StatusOK,
			wantResult:     1,
			wantLocale:     "sv-SE",
		},
		{
			name:       "missing parameter",
			target:     "/intl/compare?a=apple",
			wantStatus: http.StatusBadRequest,
			wantError:  "The b parameter is required",
		},
		{
			name:           "missing parameter translated",
			target:         "/intl/compare?b=apple",
			acceptLanguage: "sw",
			wantStatus:     http.StatusBadRequest,
			wantError:      "Kigezo a kinahitajika",
		},
		{
			name:       "invalid locale",
			target:     "/intl/compare?a=x&b=y&lang=!!",
			wantStatus: http.StatusBadRequest,
			wantError:  "!! is not a valid locale",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tc.acceptLanguage)
			}

			rec := s.serve(svc, req)
			s.Require().Equal(tc.wantStatus, rec.Code, rec.Body.String())

			body := s.decode(rec)
			if tc.wantError != "" {
				s.Equal(tc.wantError, body["error"])
				return
			}
			s.InDelta(tc.wantResult, body["result"], 0)
			s.Equal(tc.wantLocale, body["locale"])
		})
	}
}

func (s *ServiceTestSuite) TestFormatDateEndpoint() {
	_, svc := s.newService()

	testCases := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
		wantField  string
	}{
		{
			name:       "date only",
			target:     "/intl/format-date?t=2024-01-05&lang=en-US",
			wantStatus: http.StatusOK,
			wantField:  "formatted",
			wantBody:   "Jan 05, 2024",
		},
		{
			name:       "epoch millis",
			target:     "/intl/format-date?t=1704412800000&lang=en-GB",
			wantStatus: http.StatusOK,
			wantField:  "formatted",
			wantBody:   "05 Jan 2024",
		},
		{
			name:       "default locale",
			target:     "/intl/format-date?t=2024-01-05T10:00:00Z",
			wantStatus: http.StatusOK,
			wantField:  "locale",
			wantBody:   "en-US",
		},
		{
			name:       "missing timestamp",
			target:     "/intl/format-date?lang=en",
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantBody:   "The t parameter is required",
		},
		{
			name:       "bad timestamp",
			target:     "/intl/format-date?t=yesterday&lang=sw",
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantBody:   "yesterday si muda halali",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			rec := s.serve(svc, httptest.NewRequest(http.MethodGet, tc.target, nil))
			s.Require().Equal(tc.wantStatus, rec.Code, rec.Body.String())
			s.Equal(tc.wantBody, s.decode(rec)[tc.wantField])
		})
	}
}

func (s *ServiceTestSuite) TestSortEndpoint() {
	_, svc := s.newService()

	req := httptest.NewRequest(http.MethodPost, "/intl/sort",
		strings.NewReader(`{"locale":"de","values":["zebra","Banana","apple","Äpfel"]}`))
	req.Header.Set("Content-Type", "application/json")

	rec := s.serve(svc, req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Locale  string   `json:"locale"`
		Values  []string `json:"values"`
		Summary string   `json:"summary"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("de", body.Locale)
	s.Equal([]string{"Äpfel", "apple", "Banana", "zebra"}, body.Values)
	s.Equal("4 values sorted", body.Summary)

	bad := s.serve(svc, httptest.NewRequest(http.MethodPost, "/intl/sort", strings.NewReader("{")))
	s.Equal(http.StatusBadRequest, bad.Code)
	s.Equal("The request body could not be read", s.decode(bad)["error"])
}

func (s *ServiceTestSuite) TestSortIgnoresFormContentType() {
	_, svc := s.newService()

	req := httptest.NewRequest(http.MethodPost, "/intl/sort?lang=sv",
		strings.NewReader(`{"values":["z","ö","a"]}`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := s.serve(svc, req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Locale string   `json:"locale"`
		Values []string `json:"values"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("sv", body.Locale)
	s.Equal([]string{"a", "z", "ö"}, body.Values)
}

func (s *ServiceTestSuite) TestTelemetry() {
	reader := sdkmetric.NewManualReader()
	ctx, svc := lingo.NewService("lingo-test",
		lingo.WithConfig(&config.ConfigurationDefault{ServiceName: "lingo-test"}),
		lingo.WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
		lingo.WithDefaultLocale("en-US"),
		lingo.WithBrowserOpener(&recordingOpener{}),
	)
	s.T().Cleanup(func() { svc.Stop(ctx) })

	rec := s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/compare?a=a&b=b&lang=de", nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	var rm metricdata.ResourceMetrics
	s.Require().NoError(reader.Collect(context.Background(), &rm))

	scopes := map[string]int{}
	for _, scope := range rm.ScopeMetrics {
		scopes[scope.Scope.Name] = len(scope.Metrics)
	}
	s.Positive(scopes["go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"])
	s.Positive(scopes["github.com/pitabwire/lingo/locale"])
}

func (s *ServiceTestSuite) TestLocationEndpoint() {
	_, svc := s.newService()

	req := httptest.NewRequest(http.MethodGet, "http://app.example.com/intl/location?view=list", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := s.serve(svc, req)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("https://app.example.com/intl/location?view=list", s.decode(rec)["uri"])
}

func (s *ServiceTestSuite) TestStatsEndpoint() {
	_, svc := s.newService()

	s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/compare?a=x&b=y&lang=fr", nil))
	s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/compare?a=x&b=z&lang=fr", nil))

	rec := s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/stats", nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats locale.Stats
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(int64(1), stats.CollatorsBuilt)
	s.Equal([]string{"fr"}, stats.CollatorLocales)
}

func (s *ServiceTestSuite) TestShellEmbedsUserConfig() {
	_, svc := s.newService(lingo.WithShell([]byte(`<html><head><title>app</title></head><body></body></html>`)))

	for _, target := range []string{"/", "/settings/profile"} {
		rec := s.serve(svc, httptest.NewRequest(http.MethodGet, target, nil))
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Header().Get("Content-Type"), "text/html")

		text, ok := page.ReadUserConfig(rec.Body)
		s.Require().True(ok, target)
		s.Equal(testUserConfig, text)
	}

	head := s.serve(svc, httptest.NewRequest(http.MethodHead, "/", nil))
	s.Equal(http.StatusOK, head.Code)
	s.Empty(head.Body.String())
}

func (s *ServiceTestSuite) TestCustomApplicationHandler() {
	_, svc := s.newService(lingo.WithHTTPHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := s.serve(svc, httptest.NewRequest(http.MethodDelete, "/anything", nil))
	s.Equal(http.StatusTeapot, rec.Code)
}

func (s *ServiceTestSuite) TestHealthEndpoint() {
	_, svc := s.newService()

	rec := s.serve(svc, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", rec.Body.String())

	svc.AddHealthCheck(lingo.CheckerFunc(func() error { return errors.New("down") }))
	s.Len(svc.HealthCheckers(), 1)

	rec = s.serve(svc, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("unhealthy", rec.Body.String())
}

func (s *ServiceTestSuite) TestRequestID() {
	_, svc := s.newService()

	rec := s.serve(svc, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.NotEmpty(rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc123")
	rec = s.serve(svc, req)
	s.Equal("abc123", rec.Header().Get("X-Request-Id"))
}

func (s *ServiceTestSuite) TestCORS() {
	_, svc := s.newService(lingo.WithConfig(&config.ConfigurationDefault{
		ServiceName:        "lingo-test",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := s.serve(svc, req)
	s.Equal("http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = s.serve(svc, req)
	s.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServiceTestSuite) TestDevProxy() {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("backend:" + r.URL.Path))
	}))
	s.T().Cleanup(backend.Close)

	_, svc := s.newService(lingo.WithDevProxy(devproxy.Config{
		Target:   backend.URL,
		Prefixes: []string{"/api", "/download"},
	}))
	s.Require().NotNil(svc.DevProxy())

	for _, target := range []string{"/api/items", "/download/report.csv"} {
		rec := s.serve(svc, httptest.NewRequest(http.MethodGet, target, nil))
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("backend:"+target, rec.Body.String())
	}

	rec := s.serve(svc, httptest.NewRequest(http.MethodGet, "/apis", nil))
	s.Equal("backend:/apis", rec.Body.String())

	rec = s.serve(svc, httptest.NewRequest(http.MethodGet, "/library", nil))
	s.Contains(rec.Header().Get("Content-Type"), "text/html")
}

func (s *ServiceTestSuite) TestRateLimit() {
	_, svc := s.newService(lingo.WithRateLimit(ratelimiter.Config{RequestsPerSecond: 0.001, Burst: 1}))

	first := s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/compare?a=x&b=y", nil))
	s.Equal(http.StatusOK, first.Code)

	second := s.serve(svc, httptest.NewRequest(http.MethodGet, "/intl/compare?a=x&b=y", nil))
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.Equal("1000", second.Header().Get("Retry-After"))
	s.Equal("Too many requests, retry after 1000 seconds", s.decode(second)["error"])

	health := s.serve(svc, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, health.Code, "health is not limited")
}

func (s *ServiceTestSuite) TestRunServesUntilStopped() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)

	opener := &recordingOpener{}
	ctx, svc := s.newService(
		lingo.WithConfig(&config.ConfigurationDefault{
			ServiceName:        "lingo-test",
			LocaleWarmUp:       []string{"en-US", "de"},
			OpenBrowserOnStart: true,
		}),
		lingo.WithListener(ln),
		lingo.WithBrowserOpener(opener),
	)

	started := make(chan struct{})
	svc.AddPreStartMethod(func(_ context.Context, _ *lingo.Service) { close(started) })

	cleaned := make(chan struct{})
	svc.AddCleanupMethod(func(_ context.Context) { close(cleaned) })

	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx, "") }()

	<-started

	s.Require().Eventually(func() bool {
		resp, getErr := http.Get("http://" + ln.Addr().String() + "/healthz")
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	port := ln.Addr().(*net.TCPAddr).Port
	s.Equal([]string{"http://localhost:" + strconv.Itoa(port) + "/"}, opener.opened())

	stats := svc.LocaleFacility().Stats()
	s.Equal([]string{"de", "en-US"}, stats.CollatorLocales)
	s.Equal([]string{"de", "en-US"}, stats.FormatterLocales)

	svc.Stop(ctx)

	select {
	case err = <-runErr:
		if err != nil {
			s.Require().ErrorIs(err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		s.Fail("service did not stop")
	}

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		s.Fail("cleanup was not run")
	}
}

var _ browser.Opener = (*recordingOpener)(nil)
