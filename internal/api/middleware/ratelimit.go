package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"credit-engine/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware limits requests per client IP. With a Redis client the window is
// shared across instances; without one each instance keeps its own token buckets, and
// buckets idle for longer than limiterIdleTTL are dropped.
type RateLimiterMiddleware struct {
	redisClient *redis.Client
	cfg         config.RateLimitConfig
	logger      *slog.Logger
	window      time.Duration

	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiterMiddleware(
	cfg config.RateLimitConfig,
	redisClient *redis.Client,
	logger *slog.Logger,
) *RateLimiterMiddleware {

	logger.Info("Initializing rate limiter middleware component...")

	switch {
	case !cfg.Enabled:
		logger.Info("Rate limiting is disabled via configuration.")
	case redisClient == nil:
		logger.Warn("No Redis client provided; using in-process rate limiting.", "rps", cfg.RPS, "burst", cfg.Burst)
	default:
		logger.Info("Rate limiter middleware configured", "rps", cfg.RPS, "window", 1*time.Second)
	}

	return &RateLimiterMiddleware{
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		window:      1 * time.Second,
		limiters:    make(map[string]*clientLimiter),
		now:         time.Now,
	}
}

func (rl *RateLimiterMiddleware) IsEnabled() bool {
	return rl.cfg.Enabled
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		ip := strings.TrimSpace(ips[0])

		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	xRealIP := r.Header.Get("X-Real-IP")
	if xRealIP != "" {
		ip := strings.TrimSpace(xRealIP)

		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return ip
	}

	parsedIP := net.ParseIP(r.RemoteAddr)
	if parsedIP != nil {
		return parsedIP.String()
	}

	rl.logger.Warn("Could not determine client IP for rate limiting", "remoteAddr", r.RemoteAddr, "x-forwarded-for", xff, "x-real-ip", xRealIP)
	return "unknown"
}

func (rl *RateLimiterMiddleware) localLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterIdleTTL {
		rl.sweepIdle(now)
	}

	cl, ok := rl.limiters[ip]
	if !ok {
		burst := rl.cfg.Burst
		if burst <= 0 {
			burst = int(rl.cfg.RPS)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), burst)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweepIdle drops buckets not used within limiterIdleTTL. Callers hold rl.mu.
func (rl *RateLimiterMiddleware) sweepIdle(now time.Time) {
	for ip, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.lastSweep = now
	rl.logger.Debug("Swept idle rate limiters", "remaining", len(rl.limiters))
}

// allowShared counts the request in a fixed Redis window. Redis failures let the request through.
func (rl *RateLimiterMiddleware) allowShared(r *http.Request, ip string) bool {
	ctx := r.Context()
	key := fmt.Sprintf("ratelimit:%s", ip)

	pipe := rl.redisClient.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Error("Redis pipeline failed during rate limiting check", "error", err, "ip", ip, "key", key)
		return true
	}

	currentCount, errIncr := incrCmd.Result()
	if errIncr != nil {
		rl.logger.Error("Failed to get INCR result after pipeline exec", "error", errIncr, "ip", ip, "key", key)
		return true
	}
	ttl, errTTL := ttlCmd.Result()
	if errTTL != nil {
		rl.logger.Error("Failed to get TTL result after pipeline exec", "error", errTTL, "ip", ip, "key", key)
	}

	if ttl == -1 || ttl == -2 {
		if err := rl.redisClient.Expire(ctx, key, rl.window).Err(); err != nil {
			rl.logger.Error("Failed to set Redis EXPIRE for rate limit key", "error", err, "ip", ip, "key", key)
		}
	}

	return float64(currentCount) <= rl.cfg.RPS
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.IsEnabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if ip == "unknown" {
			rl.logger.Error("Blocking request due to unknown client IP for rate limiting")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		var allowed bool
		if rl.redisClient != nil {
			allowed = rl.allowShared(r, ip)
		} else {
			allowed = rl.localLimiter(ip).Allow()
		}

		if !allowed {
			rl.logger.Warn("Rate limit exceeded", "ip", ip, "limit", rl.cfg.RPS)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", rl.window.Seconds()))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{
					"message": fmt.Sprintf("Rate limit exceeded. Limit is %v requests per %v.", rl.cfg.RPS, rl.window),
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
