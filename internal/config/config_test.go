package config

import (
    "reflect"
    "testing"
    "time"

    "github.com/iliyamo/table-reservation/internal/slots"
)

func TestLoadDefaults(t *testing.T) {
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("TIMEZONE", "UTC")
    for _, k := range []string{"APP_ENV", "APP_PORT", "STORE_DRIVER", "SLOT_LABELS", "SLOT_WINDOW_DAYS", "NOTIFY_MODE", "ADMIN_USERNAME"} {
        t.Setenv(k, "")
    }

    cfg := Load()
    if cfg.Env != "dev" || cfg.Port != "8080" {
        t.Fatalf("unexpected env/port: %q %q", cfg.Env, cfg.Port)
    }
    if cfg.StoreDriver != StoreJSON {
        t.Fatalf("expected json store, got %q", cfg.StoreDriver)
    }
    if cfg.WindowDays != slots.DefaultWindowDays {
        t.Fatalf("expected window %d, got %d", slots.DefaultWindowDays, cfg.WindowDays)
    }
    if !reflect.DeepEqual(cfg.SlotLabels, slots.DefaultLabels) {
        t.Fatalf("unexpected labels: %v", cfg.SlotLabels)
    }
    if cfg.AdminUsername != "admin" || cfg.NotifyMode != NotifySMTP {
        t.Fatalf("unexpected admin/notify: %q %q", cfg.AdminUsername, cfg.NotifyMode)
    }
    if cfg.Location != time.UTC {
        t.Fatalf("expected UTC, got %v", cfg.Location)
    }
}

func TestParseLabels(t *testing.T) {
    got := parseLabels(" 6pm-8pm, ,8pm-10pm ")
    want := []string{"6pm-8pm", "8pm-10pm"}
    if !reflect.DeepEqual(got, want) {
        t.Fatalf("got %v want %v", got, want)
    }
    def := parseLabels("")
    def[0] = "mutated"
    if slots.DefaultLabels[0] == "mutated" {
        t.Fatal("parseLabels must copy the defaults")
    }
}

func TestScopedRateLimit(t *testing.T) {
    t.Setenv("RATE_LIMIT_AUTH_CAPACITY", "3")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadScopedRateLimitConfig("auth", 10)
    if cfg.Scope != "auth" || cfg.Capacity != 3 {
        t.Fatalf("unexpected scope config: %+v", cfg)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("TTL must be raised to 5 refill intervals, got %s", cfg.TTL)
    }

    other := LoadScopedRateLimitConfig("booking", 20)
    if other.Capacity != 20 {
        t.Fatalf("expected default capacity 20, got %d", other.Capacity)
    }
}

func TestRedisOptions(t *testing.T) {
    t.Setenv("REDIS_URL", "")
    t.Setenv("REDIS_HOST", "cache.internal")
    t.Setenv("REDIS_PORT", "6380")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "true")
    opts, err := redisOptions()
    if err != nil {
        t.Fatal(err)
    }
    if opts.Addr != "cache.internal:6380" || opts.DB != 2 || opts.TLSConfig == nil {
        t.Fatalf("unexpected options: %+v", opts)
    }

    t.Setenv("REDIS_URL", "redis://:pw@10.1.2.3:6379/4")
    opts, err = redisOptions()
    if err != nil {
        t.Fatal(err)
    }
    if opts.Addr != "10.1.2.3:6379" || opts.Password != "pw" || opts.DB != 4 {
        t.Fatalf("unexpected url options: %+v", opts)
    }
}

func TestCacheConfigDefaults(t *testing.T) {
    for _, k := range []string{"CACHE_ENABLED", "CACHE_TTL", "CACHE_PREFIX", "CACHE_MAX_BODY_BYTES"} {
        t.Setenv(k, "")
    }
    cfg := LoadCacheConfig()
    if !cfg.Enabled || cfg.TTL != 15*time.Second || cfg.Prefix != "cache:restaurants" || cfg.MaxBodyBytes != 1<<20 {
        t.Fatalf("unexpected cache defaults: %+v", cfg)
    }
    t.Setenv("CACHE_ENABLED", "off")
    if LoadCacheConfig().Enabled {
        t.Fatal("CACHE_ENABLED=off must disable the cache")
    }
}
