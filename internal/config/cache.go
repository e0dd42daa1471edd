package config

import "time"

// CacheConfig controls the Redis response cache in front of the public
// leaderboard, stats, directory and guide reads.
type CacheConfig struct {
	Enabled bool
	// Methods is the set of upper-cased HTTP methods eligible for caching.
	Methods map[string]bool
	TTL     time.Duration
	// KeyStrategy is one of route, method_route, route_query (default) or
	// method_route_query.
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
	// InvalidateOnWrite drops the affected route tags after ledger and
	// guide writes instead of waiting for TTL expiry.
	InvalidateOnWrite bool
}

// LoadCacheConfig reads CACHE_*.  The TTL default is short because the
// leaderboard moves on every approval.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:           envBool("CACHE_ENABLED", true),
		Methods:           envSet("CACHE_METHODS", "GET"),
		TTL:               envDur("CACHE_TTL", 15*time.Second),
		KeyStrategy:       envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:            envStr("CACHE_PREFIX", "pathik:cache"),
		MaxBodyBytes:      envInt("CACHE_MAX_BODY_BYTES", 512<<10),
		InvalidateOnWrite: envBool("CACHE_INVALIDATE_ON_WRITE", true),
	}
}
