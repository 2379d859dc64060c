package config

import "time"

// RateLimitConfig controls the fixed-window limiter applied to credential
// endpoints (login, refresh).  Limit requests per Window per client key.
type RateLimitConfig struct {
    Enabled bool
    Limit   int
    Window  time.Duration
    Prefix  string
}

// LoadRateLimitConfig reads the limiter knobs from the environment.  The
// defaults allow 10 attempts per minute per client, which is generous for a
// human but stops credential-stuffing loops.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Limit:   envInt("RATE_LIMIT_LIMIT", 10),
        Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:  getenv("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Limit < 1 {
        cfg.Limit = 1
    }
    if cfg.Window <= 0 {
        cfg.Window = time.Minute
    }
    return cfg
}
