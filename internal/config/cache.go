package config

import "time"

// CacheConfig controls the Redis cache in front of the public restaurant
// listing.  Entries are dropped whenever an admin changes restaurants or
// runs the rollover, so TTL only bounds how stale the remaining-table
// counts shown to guests can get after a booking.  Responses larger than
// MaxBodyBytes are served but not stored.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_ENABLED, CACHE_TTL, CACHE_PREFIX and
// CACHE_MAX_BODY_BYTES.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 15*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cache:restaurants"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
