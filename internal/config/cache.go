package config

import "time"

// CacheConfig defines settings for the channel-profile response cache.
// Entries are keyed per viewer because the isSubscribed field differs
// between callers looking at the same channel.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads cache settings from the environment.  A short TTL
// keeps subscriber counts close to live while absorbing profile-page bursts.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled: envBool("CACHE_ENABLED", true),
        TTL:     envDur("CACHE_TTL", 30*time.Second),
        Prefix:  getenv("CACHE_PREFIX", "cache"),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return cfg
}
