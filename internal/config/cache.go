package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD) and Paths the
// route prefixes eligible for caching.  TTL defines the lifetime of cache
// entries.  KeyStrategy determines which parts of the request contribute
// to the cache key.  Every successful write under one of the Paths drops
// all entries stored under Prefix, so seat counts never stay stale for
// longer than a request.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	Paths        []string
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CACHE_ENABLED", "true") == "true",
		Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
		Paths:        splitList(getenv("CACHE_PATHS", "/v1/events")),
		TTL:          parseDur(getenv("CACHE_TTL", "30s")),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

// Cacheable reports whether path falls under one of the cached prefixes.
func (c CacheConfig) Cacheable(path string) bool {
	for _, p := range c.Paths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range splitList(strings.ToUpper(s)) {
		m[p] = true
	}
	return m
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions reused from redis.go and ratelimit.go
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
