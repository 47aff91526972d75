// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/devassets/assets-api/internal/core"
)

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	OnLimited  func(http.ResponseWriter, *http.Request, *redis_rate.Result)
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

// NewRateLimiter enforces limits in redis when a client is given and in
// process memory otherwise.
func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		config:   cfg,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}

	return rl
}

// Close stops the local limiter's idle-key sweep. It is safe to call
// more than once.
func (rl *RateLimiter) Close() {
	rl.fallback.close()
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(
				w,
				http.StatusServiceUnavailable,
				"RATE_LIMITER_UNAVAILABLE",
				"service unavailable",
				nil,
			)
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			if rl.config.OnLimited != nil {
				rl.config.OnLimited(w, r, res)
				return
			}
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	if rl.limiter == nil {
		return rl.fallback.allow(key, rl.config.Limit)
	}

	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		slog.WarnContext(ctx, "redis rate limiter unavailable, using local limiter",
			"error", err,
		)
		return rl.fallback.allow(key, rl.config.Limit)
	}
	return res, nil
}

// ClientIP prefers the last proxy-appended address, which the nearest
// trusted proxy wrote.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// KeyByIPAndRoute isolates credential endpoints from the global budget.
func KeyByIPAndRoute(r *http.Request) string {
	return "ratelimit:auth:" + r.URL.Path + ":" + ClientIP(r)
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(
		w,
		http.StatusTooManyRequests,
		"RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
		nil,
	)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// localLimiter is the token bucket used without redis or while redis is
// unreachable. Idle keys are evicted by a background sweep until close.
type localLimiter struct {
	limiters sync.Map
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	l := &localLimiter{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.sweep(cleanupInterval)
	return l
}

func (l *localLimiter) sweep(interval time.Duration) {
	defer close(l.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle(time.Now().Add(-entryTTL))
		case <-l.done:
			return
		}
	}
}

func (l *localLimiter) close() {
	if l.done == nil {
		return
	}
	l.stopOnce.Do(func() {
		close(l.done)
		<-l.stopped
	})
}

func (l *localLimiter) evictIdle(cutoff time.Time) {
	l.limiters.Range(func(key, value any) bool {
		if entry, ok := value.(*limiterEntry); ok &&
			entry.lastAccess.Load() < cutoff.UnixNano() {
			l.limiters.Delete(key)
		}
		return true
	})
}

func (l *localLimiter) entry(key string, limit redis_rate.Limit) *limiterEntry {
	if v, ok := l.limiters.Load(key); ok {
		if entry, ok := v.(*limiterEntry); ok {
			return entry
		}
	}

	fresh := &limiterEntry{
		limiter: rate.NewLimiter(rate.Every(limit.Period/time.Duration(limit.Rate)), limit.Burst),
	}
	v, _ := l.limiters.LoadOrStore(key, fresh)
	entry, ok := v.(*limiterEntry)
	if !ok {
		return fresh
	}
	return entry
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d", limit.Rate)
	}

	entry := l.entry(key, limit)
	entry.lastAccess.Store(time.Now().UnixNano())

	interval := limit.Period / time.Duration(limit.Rate)
	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(entry.limiter.Tokens()), 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if entry.limiter.Allow() {
		res.Allowed = 1
		res.Remaining = max(int(entry.limiter.Tokens()), 0)
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}

// PerWindow builds a limit of rate requests per period, with burst
// defaulting to rate when unset.
func PerWindow(rate, burst int, period time.Duration) redis_rate.Limit {
	if burst <= 0 {
		burst = rate
	}
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: period,
	}
}
