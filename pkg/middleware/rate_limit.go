package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/numerology-appointments/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed windows stored in Redis.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, requests: requests, window: window}
}

// Allow reports whether key is still within its window budget.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	redisKey := "ratelimit:" + key
	// SET NX EX creates the window with its expiry in one step; INCR keeps the TTL
	if err := rl.client.SetNX(ctx, redisKey, 0, rl.window).Err(); err != nil {
		return true, err
	}
	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, err
	}
	return count <= int64(rl.requests), nil
}

// Middleware limits by client IP. A nil limiter disables it; Redis errors fail open.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := rl.Allow(r.Context(), "ip:"+getClientIP(r))
			if err != nil {
				logger.WarnContext(r.Context(), "Rate limiter unavailable", "error", err)
			}
			if !ok {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
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
