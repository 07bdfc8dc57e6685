package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the catalogue response cache.  Only
// routes listed in Routes are cached; live table availability is never
// cached because it changes on every booking.  KeyStrategy determines
// which parts of the request contribute to the cache key.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    Routes       map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// DefaultCacheRoutes are the public catalogue endpoints.
const DefaultCacheRoutes = "/v1/cafes,/v1/cafes/:id,/v1/cafes/:id/menu,/v1/vouchers,/v1/payment-methods"

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseSet(envStr("CACHE_METHODS", "GET"), strings.ToUpper),
        Routes:       parseSet(envStr("CACHE_ROUTES", DefaultCacheRoutes), func(s string) string { return s }),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// Cacheable reports whether a request with method on the echo route path
// may be served from the cache.
func (c CacheConfig) Cacheable(method, route string) bool {
    return c.Methods[strings.ToUpper(method)] && c.Routes[route]
}

func parseSet(s string, norm func(string) string) map[string]bool {
    m := map[string]bool{}
    for _, p := range splitList(s) {
        m[norm(p)] = true
    }
    return m
}
