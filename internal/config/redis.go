package config

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
)

// NewRedisClient connects to the Redis instance that backs the login and
// booking rate limiters and the restaurant listing cache.
//
//   REDIS_ENABLED                  "false" skips Redis entirely
//   REDIS_URL                      redis:// or rediss:// URL, wins when set
//   REDIS_HOST, REDIS_PORT         default localhost:6379
//   REDIS_PASSWORD, REDIS_DB
//   REDIS_TLS                      "true" enables TLS
//
// It returns nil when Redis is disabled or does not answer a ping; both
// middlewares then pass every request through.
func NewRedisClient(log *zerolog.Logger) *redis.Client {
    if !envBool("REDIS_ENABLED", true) {
        log.Info().Msg("redis disabled; rate limiting and caching off")
        return nil
    }

    opts, err := redisOptions()
    if err != nil {
        log.Warn().Err(err).Msg("invalid REDIS_URL; rate limiting and caching off")
        return nil
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warn().Err(err).Str("addr", opts.Addr).Msg("redis unreachable; rate limiting and caching off")
        _ = client.Close()
        return nil
    }
    log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis connected")
    return client
}

func redisOptions() (*redis.Options, error) {
    if u := envStr("REDIS_URL", ""); u != "" {
        return redis.ParseURL(u)
    }
    opts := &redis.Options{
        Addr:     net.JoinHostPort(envStr("REDIS_HOST", "localhost"), envStr("REDIS_PORT", "6379")),
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}
