package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/notify"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/reservation"
	"github.com/iliyamo/table-reservation/internal/router"
	queue_publisher "github.com/iliyamo/table-reservation/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := database.OpenStores(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer func() {
		if err := closeStores(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	notifier := newNotifier(ctx, cfg, log)
	svc := reservation.New(stores, notifier, log, reservation.Options{
		Location:   cfg.Location,
		WindowDays: cfg.WindowDays,
		Labels:     cfg.SlotLabels,

		RolloverTimeout: cfg.RolloverTimeout,
	})

	seedCtx, cancelSeed := context.WithTimeout(ctx, 10*time.Second)
	if err := handler.NewAuthHandler(cfg, stores.Users, notifier, log).EnsureAdmin(seedCtx, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("admin seed failed")
	}
	cancelSeed()

	e := router.New(router.Deps{Cfg: cfg, Stores: stores, Service: svc, Notifier: notifier, Redis: rdb, Log: log})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Str("notify", cfg.NotifyMode).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

// newNotifier picks the notification path from NOTIFY_MODE.  In queue mode
// the consumer runs in this process and stops with ctx.
func newNotifier(ctx context.Context, cfg config.Config, log *zerolog.Logger) notify.Notifier {
	switch cfg.NotifyMode {
	case config.NotifyNone:
		return notify.Nop{}
	case config.NotifyQueue:
		mailer := notify.NewSMTPMailer(cfg.SMTP, log)
		go func() {
			if err := queue.StartNotificationConsumer(ctx, cfg.RabbitURL, mailer.Deliver, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
		return notify.NewQueueNotifier(queue_publisher.NewPublisher(cfg.RabbitURL, log), log)
	default:
		return notify.NewSMTPMailer(cfg.SMTP, log)
	}
}
