package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/config"
	"github.com/pathik-bd/pathik-api/internal/logger"
)

// tokenBucket refills whole intervals since the last refill, spends one
// token if available and returns {allowed, remaining, retry_after_ms}.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill_tokens, interval_ms, ttl_seconds
var tokenBucket = redis.NewScript(`
local now, cap, refill, interval, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local st = redis.call('HMGET', KEYS[1], 'tokens', 'last_ms')
local tokens, last = tonumber(st[1]), tonumber(st[2])
if tokens == nil or last == nil then
  tokens, last = cap, now
end
local n = math.floor(math.max(0, now - last) / interval)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  last = last + n * interval
end
local allowed, retry = 0, 0
if tokens > 0 then
  allowed, tokens = 1, tokens - 1
else
  retry = math.max(0, interval - (now - last))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, retry}
`)

// NewTokenBucket limits each caller to cfg.Capacity requests per bucket,
// refilled over time.  scope names the route group so different groups
// keep separate budgets.  The bucket lives in Redis so every API instance
// shares it; Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, scope string) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := int64(cfg.TTL / time.Second)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, scope, c)
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttl,
			).Result()
			if err != nil {
				logger.WithError(err).WithField("key", key).Warn("rate limit check failed")
				return next(c)
			}
			allowed, remaining, retryMs, ok := parseBucket(vals)
			if !ok {
				logger.WithField("key", key).Warnf("unexpected rate limit result %#v", vals)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if allowed {
				return next(c)
			}

			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				logger.WithFields(logrus.Fields{"key": key, "retry_ms": retryMs}).Info("rate limited")
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// parseBucket unpacks the script reply.  go-redis returns Lua numbers as
// int64.
func parseBucket(v interface{}) (allowed bool, remaining, retryMs int64, ok bool) {
	arr, isArr := v.([]interface{})
	if !isArr || len(arr) != 3 {
		return false, 0, 0, false
	}
	nums := make([]int64, 3)
	for i, x := range arr {
		n, isInt := x.(int64)
		if !isInt {
			return false, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0] == 1, nums[1], nums[2], true
}

// rateKey builds prefix:scope:who.  Anonymous callers fall back to their IP
// under the default user_or_ip strategy.
func rateKey(cfg config.RateLimitConfig, scope string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)

	var who string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		who = "ip:" + ip
	case "user":
		who = "user:" + uid
	default:
		if uid == "anon" {
			who = "ip:" + ip
		} else {
			who = "user:" + uid
		}
	}
	return strings.Join([]string{cfg.Prefix, scope, who}, ":")
}
