package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicdesk/identity/internal/logging"
	"github.com/redis/go-redis/v9"
)

const rateWindow = time.Minute

// Counter increments a windowed counter and returns its new value.
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter keeps request counters in Redis so that every replica
// shares one budget per client.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// IncrWithExpire increments key in one round trip. The expiry is set only
// when the key has none, so the window is fixed from the first request.
func (c *RedisCounter) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// rateLimit allows limit requests per client IP and route per minute. The
// client IP is the socket peer unless the server trusts a proxy. With
// no counter or a non-positive limit it is a no-op; counter errors let the
// request through.
func rateLimit(counter Counter, limit int, log logging.Logger) func(http.Handler) http.Handler {
	if counter == nil || limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + clientIP(r) + ":" + routePattern(r)

			count, err := counter.IncrWithExpire(r.Context(), key, rateWindow)
			if err != nil {
				log.Warn(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if int(count) > limit {
				rateLimitedTotal.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow/time.Second)))
				writeFail(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
