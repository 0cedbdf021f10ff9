package lingo

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pitabwire/lingo/config"
	"github.com/pitabwire/lingo/profiler"
	"github.com/pitabwire/lingo/ratelimiter"
)

// WithRateLimit limits /intl requests per client address.
func WithRateLimit(cfg ratelimiter.Config) Option {
	return func(_ context.Context, s *Service) {
		if !cfg.Enabled() {
			s.limiter = nil
			return
		}
		s.limiter = ratelimiter.NewKeyedLimiter(cfg)
	}
}

// WithRateLimitFromConfig applies RATE_LIMIT_RPS and RATE_LIMIT_BURST.
func WithRateLimitFromConfig() Option {
	return func(ctx context.Context, s *Service) {
		cfg, ok := s.Config().(config.ConfigurationRateLimit)
		if !ok {
			return
		}
		WithRateLimit(ratelimiter.Config{
			RequestsPerSecond: cfg.RateLimitPerSecond(),
			Burst:             cfg.RateLimitBurstSize(),
		})(ctx, s)
	}
}

func (s *Service) rateLimitMiddleware() func(http.Handler) http.Handler {
	return ratelimiter.Middleware(s.limiter, ratelimiter.ClientIP, s.writeRateLimited)
}

func (s *Service) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	retryAfter, _ := strconv.Atoi(w.Header().Get("Retry-After"))
	msg := s.localization.TranslateWithMapAndCount(
		r.Context(), r.Context(), "RateLimited", map[string]any{"RetryAfter": retryAfter}, retryAfter)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: msg})
}

func (s *Service) startProfiler(ctx context.Context) {
	cfg, ok := s.Config().(config.ConfigurationProfiler)
	if !ok || !cfg.ProfilerEnabled() {
		return
	}

	s.profiler = profiler.NewServer()
	if err := s.profiler.Start(ctx, cfg.ProfilerPort()); err != nil {
		s.Log(ctx).WithError(err).Error("could not start pprof server")
		s.profiler = nil
	}
}
