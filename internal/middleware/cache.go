package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/table-reservation/internal/config"
)

// cacheEntry is what a cached listing response looks like in Redis.
type cacheEntry struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

func encodeEntry(e cacheEntry) ([]byte, error) { return json.Marshal(e) }

func decodeEntry(bs []byte) (cacheEntry, bool) {
    var e cacheEntry
    if err := json.Unmarshal(bs, &e); err != nil || e.Status == 0 {
        return cacheEntry{}, false
    }
    return e, true
}

// bodyRecorder tees the response body while it is written to the client.
// It stops recording once the body grows past limit.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// cacheKey is prefix:path:sha1(query).
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Request().URL.RawQuery))
    return cfg.Prefix + ":" + c.Request().URL.Path + ":" + hex.EncodeToString(sum[:8])
}

// NewRedisCache caches 200 responses to anonymous GET requests in Redis
// under cfg.Prefix.  Requests carrying a session cookie or an Authorization
// header bypass the cache in both directions.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil || cfg.TTL <= 0 {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet || hasCredentials(c) {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if e, ok := decodeEntry(bs); ok {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(e.Status, e.ContentType, e.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }
            payload, err := encodeEntry(cacheEntry{
                Status:      rec.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        rec.buf.Bytes(),
            })
            if err == nil {
                _ = rdb.Set(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err()
            }
            return nil
        }
    }
}

func hasCredentials(c echo.Context) bool {
    if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
        return true
    }
    _, err := c.Cookie(SessionCookie)
    return err == nil
}

// PurgeCache deletes every entry under cfg.Prefix.  Admin handlers call it
// after changing restaurants so the public listing is rebuilt on the next
// request.  It is a no-op without Redis.
func PurgeCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) (int, error) {
    if rdb == nil {
        return 0, nil
    }
    removed := 0
    iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 100).Iterator()
    var batch []string
    flush := func() error {
        if len(batch) == 0 {
            return nil
        }
        n, err := rdb.Del(ctx, batch...).Result()
        removed += int(n)
        batch = batch[:0]
        return err
    }
    for iter.Next(ctx) {
        batch = append(batch, iter.Val())
        if len(batch) == 100 {
            if err := flush(); err != nil {
                return removed, err
            }
        }
    }
    if err := iter.Err(); err != nil {
        return removed, err
    }
    return removed, flush()
}
