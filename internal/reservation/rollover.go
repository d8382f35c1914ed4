package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/slots"
)

// errUnchanged aborts MutateRestaurant so an untouched calendar is not
// rewritten.
var errUnchanged = errors.New("calendar unchanged")

// RolloverReport summarises one RolloverAll run.
type RolloverReport struct {
	Today       string                        `json:"today"`
	Restaurants int                           `json:"restaurants"`
	Changed     int                           `json:"changed"`
	Failed      []int64                       `json:"failed,omitempty"`
	Results     map[int64]slots.RolloverStats `json:"results"`
}

// RolloverAll advances the calendar of every restaurant.  Each restaurant
// is handled on its own with its own RolloverTimeout budget: a failure or a
// timeout is recorded and the run moves on.  A deadline on ctx does not cut
// the run short; only cancelling ctx stops it before the last restaurant.
// The returned error joins all per-restaurant failures.
func (s *Service) RolloverAll(ctx context.Context) (RolloverReport, error) {
	today := s.Today()
	rep := RolloverReport{Today: slots.Day(today), Results: make(map[int64]slots.RolloverStats)}

	listCtx, cancel := s.restaurantCtx(ctx)
	ids, err := s.stores.Restaurants.IDs(listCtx)
	cancel()
	if err != nil {
		return rep, fmt.Errorf("list restaurants: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if errors.Is(ctx.Err(), context.Canceled) {
			errs = append(errs, fmt.Errorf("rollover stopped before restaurant %d: %w", id, ctx.Err()))
			break
		}
		st, err := s.rolloverOne(ctx, id, today)
		switch {
		case err == nil, errors.Is(err, errUnchanged):
		case errors.Is(err, repository.ErrNotFound):
			// deleted while the run was in progress
			continue
		default:
			rep.Failed = append(rep.Failed, id)
			errs = append(errs, fmt.Errorf("restaurant %d: %w", id, err))
			s.log.Error().Err(err).Int64("restaurant_id", id).Msg("rollover failed")
			continue
		}
		rep.Restaurants++
		rep.Results[id] = st
		if st.Changed() {
			rep.Changed++
		}
	}

	s.log.Info().
		Str("today", rep.Today).
		Int("restaurants", rep.Restaurants).
		Int("changed", rep.Changed).
		Int("failed", len(rep.Failed)).
		Msg("slot rollover finished")
	return rep, errors.Join(errs...)
}

// restaurantCtx bounds one store call of the batch.  It keeps ctx's values
// and cancellation but not its deadline.
func (s *Service) restaurantCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rolloverTimeout)
	stop := context.AfterFunc(ctx, func() {
		if errors.Is(ctx.Err(), context.Canceled) {
			cancel()
		}
	})
	return rctx, func() {
		stop()
		cancel()
	}
}

func (s *Service) rolloverOne(ctx context.Context, id int64, today time.Time) (slots.RolloverStats, error) {
	rctx, cancel := s.restaurantCtx(ctx)
	defer cancel()
	var st slots.RolloverStats
	_, err := s.stores.Restaurants.MutateRestaurant(rctx, id, func(r *model.Restaurant) error {
		st = slots.Rollover(r, today, s.windowDays, s.labels)
		if !st.Changed() {
			return errUnchanged
		}
		return slots.Check(*r)
	})
	return st, err
}
