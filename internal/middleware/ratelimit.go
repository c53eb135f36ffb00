package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harborchat/harbor/internal/logging"
)

// rateLimitScript increments the counter for a key and starts its window on
// first use. Doing both in one script avoids the race where INCR succeeds but
// EXPIRE never runs, leaving a counter that throttles forever.
const rateLimitScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`

// RateLimiter throttles requests per caller over a fixed window. Reaction
// writes key their counters by session user so one noisy chat member cannot
// spend the budget for everyone behind the same proxy; unauthenticated
// traffic falls back to the client IP.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
	prefix string
	keyFn  func(r *http.Request) string
	// failOpen controls behavior when Redis errors: when true, requests are
	// allowed through. Set to false for endpoints where overuse is costly.
	failOpen bool
}

func NewRateLimiter(redis *redis.Client, limit int64, window time.Duration, prefix string, keyFn func(r *http.Request) string, failOpen bool) *RateLimiter {
	return &RateLimiter{
		redis:    redis,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFn:    keyFn,
		failOpen: failOpen,
	}
}

// Allow records one request for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ttlSeconds := int64(rl.window.Seconds())
	count, err := rl.redis.Eval(ctx, rateLimitScript, []string{rl.prefix + key}, ttlSeconds).Int64()
	if err != nil {
		return false, err
	}
	return count <= rl.limit, nil
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.keyFn(r)
		if key == "" {
			key = GetClientIP(r)
		}

		allowed, err := rl.Allow(r.Context(), key)
		if err != nil {
			logging.Error("Rate limit check failed", map[string]interface{}{"error": err.Error()})
			if rl.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusServiceUnavailable, "Rate limiting temporarily unavailable")
			return
		}

		if !allowed {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetClientIP extracts the client IP from the request, respecting X-Forwarded-For
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs; the first one is the client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
