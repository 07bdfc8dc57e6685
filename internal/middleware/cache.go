package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cafe-table-reservation/internal/config"
    "github.com/iliyamo/cafe-table-reservation/internal/logging"
)

// captureWriter tees the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey builds a stable key honouring prefix and strategy.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default: // "route_query"
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    // route params are part of the key: /v1/cafes/:id is one route for every cafe
    for _, name := range c.ParamNames() {
        parts = append(parts, "p", name, c.Param(name))
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache serves cacheable catalogue routes (see
// config.CacheConfig.Cacheable) from Redis.  Headers and body are stored
// together so a hit replays the original response byte for byte.
// Truncated or non-200 responses are not stored.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    log = logging.OrDiscard(log)
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Cacheable(c.Request().Method, c.Path()) {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            } else if err != redis.Nil {
                log.Warn("cache lookup failed", "key", key, "err", err)
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// PurgeCache deletes every cached response under prefix.  It runs after
// the catalogue is reseeded.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
    if rdb == nil {
        return 0, nil
    }
    var (
        cursor uint64
        total  int
    )
    for {
        keys, next, err := rdb.Scan(ctx, cursor, prefix+":*", 200).Result()
        if err != nil {
            return total, err
        }
        if len(keys) > 0 {
            if err := rdb.Del(ctx, keys...).Err(); err != nil {
                return total, err
            }
            total += len(keys)
        }
        if cursor = next; cursor == 0 {
            return total, nil
        }
    }
}
