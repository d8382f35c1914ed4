package middleware

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/table-reservation/internal/config"
)

// takeToken refills the bucket in whole intervals and takes one token.
// It returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local st = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(st[1]), tonumber(st[2])
if tokens == nil or at == nil then
  tokens, at = cap, now
end
local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
  tokens = math.min(cap, tokens + steps * refill)
  at = at + steps * every
end
local ok, wait = 0, 0
if tokens > 0 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, every - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

type bucketResult struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

type tokenBucket struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func (b *tokenBucket) take(ctx context.Context, key string) (bucketResult, error) {
    vals, err := takeToken.Run(ctx, b.rdb, []string{key},
        time.Now().UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketResult{}, err
    }
    if len(vals) != 3 {
        return bucketResult{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
    }
    return bucketResult{
        allowed:   vals[0] == 1,
        remaining: vals[1],
        retry:     time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests with a Redis token bucket.  The bucket key
// is built from cfg.Scope and the parts named by cfg.KeyStrategy.  Without a
// Redis client, or when limiting is disabled, every request passes; a Redis
// error also lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    b := &tokenBucket{cfg: cfg, rdb: rdb}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := b.take(c.Request().Context(), key)
            if err != nil {
                log.Warn().Err(err).Str("key", key).Msg("ratelimit: redis error; allowing request")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if res.allowed {
                return next(c)
            }

            secs := int((res.retry + time.Second - 1) / time.Second)
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Debug().Str("key", key).Dur("retry", res.retry).Msg("ratelimit: blocked")
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too many requests",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey joins the prefix, the scope and one segment per strategy
// part.  The strategy is an underscore separated list of ip, user and
// route; unknown parts are ignored and an empty result falls back to ip.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    if cfg.Scope != "" {
        parts = append(parts, cfg.Scope)
    }
    n := len(parts)
    for _, p := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
        switch p {
        case "ip":
            parts = append(parts, "ip", clientIP(c))
        case "user":
            parts = append(parts, "user", userKey(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        }
    }
    if len(parts) == n {
        parts = append(parts, "ip", clientIP(c))
    }
    return strings.Join(parts, ":")
}

func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}
