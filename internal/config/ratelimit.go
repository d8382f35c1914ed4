package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig configures one Redis token bucket.  Scope names the
// route group the limiter guards ("auth", "booking") and becomes part of
// every bucket key.  KeyStrategy is an underscore separated list of the
// request attributes that identify a bucket: ip, user and route.
type RateLimitConfig struct {
    Enabled        bool
    Scope          string
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads the shared RATE_LIMIT_* settings.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }.normalize()
}

// LoadScopedRateLimitConfig starts from the shared settings and applies
// RATE_LIMIT_<SCOPE>_CAPACITY, _REFILL_INTERVAL and _KEY_STRATEGY.
// Login and registration use the "auth" scope, table booking "booking".
func LoadScopedRateLimitConfig(scope string, defCapacity int) RateLimitConfig {
    cfg := LoadRateLimitConfig()
    cfg.Scope = strings.ToLower(scope)
    up := "RATE_LIMIT_" + strings.ToUpper(scope) + "_"
    cfg.Capacity = envInt(up+"CAPACITY", defCapacity)
    cfg.RefillInterval = envDur(up+"REFILL_INTERVAL", cfg.RefillInterval)
    cfg.KeyStrategy = envStr(up+"KEY_STRATEGY", cfg.KeyStrategy)
    return cfg.normalize()
}

// normalize clamps the numbers the Lua script divides by and keeps idle
// buckets alive for at least five refill intervals.
func (c RateLimitConfig) normalize() RateLimitConfig {
    c.Capacity = max(c.Capacity, 1)
    c.RefillTokens = max(c.RefillTokens, 1)
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    c.TTL = max(c.TTL, 5*c.RefillInterval)
    return c
}

func envStr(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    if b, err := strconv.ParseBool(envStr(k, "")); err == nil {
        return b
    }
    switch strings.ToLower(envStr(k, "")) {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(envStr(k, "")); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(envStr(k, "")); err == nil {
        return dur
    }
    return d
}
