package ratelimiter

import (
	"math"
	"net/http"
	"strconv"

	"github.com/pitabwire/util"
)

// ClientIP keys requests by the caller's address.
func ClientIP(r *http.Request) string {
	return util.GetIP(r)
}

// Middleware answers 429 once the caller identified by key has no tokens left.
// Rejected is called to write the response body; nil writes the status text.
func Middleware(limiter *KeyedLimiter, key func(*http.Request) string, rejected http.HandlerFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil || !limiter.cfg.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.cfg.Burst))
			if limiter.Allow(key(r)) {
				next.ServeHTTP(w, r)
				return
			}

			util.Log(r.Context()).WithField("key", key(r)).Debug("request rate limited")

			retryAfter := int(math.Ceil(1 / limiter.cfg.RequestsPerSecond))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, retryAfter)))
			w.Header().Set("X-RateLimit-Remaining", "0")

			if rejected != nil {
				rejected(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}
