package config

// Redis backs the rate limiter, the catalogue response cache and the
// redis cart driver.  If the server cannot be reached at startup the
// client is nil and callers degrade: cache and rate limit are disabled
// and carts fall back to memory.

import (
    "context"
    "crypto/tls"
    "log/slog"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// LoadRedisOptions builds client options from the environment:
//   REDIS_ADDR or REDIS_HOST + REDIS_PORT (host/port win), default localhost:6379
//   REDIS_PASSWORD, REDIS_DB (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
func LoadRedisOptions() *redis.Options {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
    }
    return opts
}

// NewRedisClient connects with LoadRedisOptions and pings the server.
// The returned client is nil if the ping fails.
func NewRedisClient(ctx context.Context, log *slog.Logger) *redis.Client {
    opts := LoadRedisOptions()
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        if log != nil {
            log.Warn("redis unavailable; cache, rate limit and redis cart disabled", "addr", opts.Addr, "err", err)
        }
        return nil
    }
    return client
}
