package router

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/notify"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/reservation"
)

// Deps carries everything the HTTP layer needs.  Redis may be nil.
type Deps struct {
	Cfg      config.Config
	Stores   repository.Stores
	Service  *reservation.Service
	Notifier notify.Notifier
	Redis    *redis.Client
	Log      *zerolog.Logger
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.BodyLimit("10M"))

	cacheCfg := config.LoadCacheConfig()
	purge := func(ctx context.Context) {
		n, err := middleware.PurgeCache(ctx, cacheCfg, d.Redis)
		if err != nil {
			d.Log.Warn().Err(err).Msg("cache purge failed")
			return
		}
		if n > 0 {
			d.Log.Debug().Int("keys", n).Msg("cache purged")
		}
	}
	authLimit := middleware.NewTokenBucket(config.LoadScopedRateLimitConfig("auth", 10), d.Redis, d.Log)
	bookLimit := middleware.NewTokenBucket(config.LoadScopedRateLimitConfig("booking", 20), d.Redis, d.Log)

	RegisterRoutes(e, &handler.HealthHandler{Restaurants: d.Stores.Restaurants, Driver: d.Cfg.StoreDriver})
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, d.Stores.Users, d.Notifier, d.Log), d.Cfg.JWTSecret, authLimit)
	RegisterPublic(e, handler.NewPublicHandler(d.Service, d.Log), middleware.NewRedisCache(cacheCfg, d.Redis), d.Cfg.UploadDir)
	RegisterCustomer(e, handler.NewCustomerHandler(d.Service, d.Log), d.Cfg.JWTSecret, bookLimit)
	RegisterAdmin(e, handler.NewAdminHandler(d.Service, d.Cfg.UploadDir, purge, d.Log), d.Cfg.JWTSecret)
	return e
}
