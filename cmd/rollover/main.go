// Command rollover advances the slot calendar of every restaurant once and
// exits.  Schedule it daily from cron as an alternative to POST /update_slots.
package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/notify"
	"github.com/iliyamo/table-reservation/internal/reservation"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env)

	stores, closeStores, err := database.OpenStores(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer closeStores()

	svc := reservation.New(stores, notify.Nop{}, log, reservation.Options{
		Location:   cfg.Location,
		WindowDays: cfg.WindowDays,
		Labels:     cfg.SlotLabels,

		RolloverTimeout: cfg.RolloverTimeout,
	})

	// each restaurant has its own timeout; a signal stops the run
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := svc.RolloverAll(ctx)
	code := 0
	if err != nil {
		log.Error().Err(err).Int("failed", len(rep.Failed)).Msg("rollover incomplete")
		code = 1
	}
	if werr := writeReport(os.Stdout, rep); werr != nil {
		log.Error().Err(werr).Msg("rollover report not written")
		code = 1
	}
	if code != 0 {
		stop()
		_ = closeStores()
		os.Exit(code)
	}
}

func writeReport(w io.Writer, rep reservation.RolloverReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
