package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/itsatony/envmon/internal/errors"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimiter throttles a route with a shared token bucket
type RateLimiter struct {
	limiter *rate.Limiter
	config  RateLimitConfig
}

// NewRateLimiter returns nil when the limit is disabled
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		return nil
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		config:  config,
	}
}

// Limit rejects requests beyond the configured rate with 429
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			retryAfter := time.Duration(float64(time.Second) / l.config.RequestsPerSecond)
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			handleError(w, errors.NewRateLimitError("too many requests", nil).WithRequestID(nuts.NID("req", 12)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleError(w http.ResponseWriter, err error) {
	apiErr := errors.AsAPIError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
