package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type LimiterSuite struct {
	suite.Suite
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) frozen(cfg Config) (*KeyedLimiter, *time.Time) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	l := NewKeyedLimiter(cfg)
	l.now = func() time.Time { return now }
	return l, &now
}

func (s *LimiterSuite) TestBurstThenRefill() {
	l, now := s.frozen(Config{RequestsPerSecond: 1, Burst: 2})

	s.True(l.Allow("10.0.0.1"))
	s.True(l.Allow("10.0.0.1"))
	s.False(l.Allow("10.0.0.1"))
	s.True(l.Allow("10.0.0.2"), "keys are independent")

	*now = now.Add(time.Second)
	s.True(l.Allow("10.0.0.1"))
	s.False(l.Allow("10.0.0.1"))
}

func (s *LimiterSuite) TestDisabledAllowsEverything() {
	l := NewKeyedLimiter(Config{})
	for range 100 {
		s.True(l.Allow("x"))
	}
	s.Zero(l.Len())
}

func (s *LimiterSuite) TestPruneDropsIdleKeys() {
	l, now := s.frozen(Config{RequestsPerSecond: 5, IdleTTL: time.Minute})

	l.Allow("old")
	*now = now.Add(2 * time.Minute)
	l.Allow("fresh")
	l.Prune()

	s.Equal(1, l.Len())
}

func (s *LimiterSuite) TestMiddleware() {
	l, _ := s.frozen(Config{RequestsPerSecond: 0.5, Burst: 1})
	key := func(*http.Request) string { return "client" }

	h := Middleware(l, key, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusNoContent, first.Code)
	s.Equal("1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.Equal("2", second.Header().Get("Retry-After"))
	s.Equal("0", second.Header().Get("X-RateLimit-Remaining"))
}

func (s *LimiterSuite) TestMiddlewarePassThroughWhenDisabled() {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := Middleware(NewKeyedLimiter(Config{}), nil, nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	s.Empty(rec.Header().Get("X-RateLimit-Limit"))
}
