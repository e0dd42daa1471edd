package config

import "time"

// RateLimitConfig sizes the Redis token bucket.  Each route group gets its
// own bucket per caller, so heavy leaderboard polling does not eat into a
// user's submission budget.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	// TTL is how long an idle bucket survives in Redis.
	TTL time.Duration
	// KeyStrategy is "ip", "user" or "user_or_ip" (the default): signed-in
	// callers are keyed by user id, anonymous ones by client IP.
	KeyStrategy string
	Prefix      string
	Debug       bool
}

// LoadRateLimitConfig reads RATE_LIMIT_*.  RATE_LIMIT_REFILL_EVERY is a
// shorthand for one token per interval.
func LoadRateLimitConfig() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "user_or_ip"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "pathik:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		rl.RefillTokens, rl.RefillInterval = 1, every
	}
	rl.Capacity = max(rl.Capacity, 1)
	rl.RefillTokens = max(rl.RefillTokens, 1)
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
	return rl
}
