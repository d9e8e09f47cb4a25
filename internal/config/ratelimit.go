package config

import "time"

// RateLimitConfig controls the token bucket applied to the
// credential-guessing surfaces (login and the legacy password reset).
// The bucket is small on purpose: these endpoints are hit a handful of
// times per human session and anything beyond that is an attack.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size (burst)
	RefillInterval time.Duration // one token added per interval
	TTL            time.Duration // idle expiry of the bucket key
	Prefix         string        // redis key namespace
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig, clamping nonsensical values back to sane ones.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillInterval: envDur("RATE_LIMIT_REFILL_EVERY", 3*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envDur(key string, def time.Duration) time.Duration {
	v := envStr(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}
