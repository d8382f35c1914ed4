package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/docstore"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// OpenStores opens the backend selected by cfg.StoreDriver.  The returned
// close function releases it and is never nil.
func OpenStores(cfg config.Config, log *zerolog.Logger) (repository.Stores, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreDriver {
	case config.StoreJSON, "":
		st, err := docstore.Open(cfg.DataDir)
		if err != nil {
			return repository.Stores{}, noop, fmt.Errorf("open document store: %w", err)
		}
		log.Info().Str("driver", config.StoreJSON).Str("dir", cfg.DataDir).Msg("store opened")
		return st.Stores(), noop, nil
	case config.StoreMySQL:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := OpenMySQL(ctx, cfg)
		if err != nil {
			return repository.Stores{}, noop, fmt.Errorf("connect mysql: %w", err)
		}
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return repository.Stores{}, noop, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("driver", config.StoreMySQL).Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("store opened")
		return repository.NewMySQLStores(db), db.Close, nil
	}
	return repository.Stores{}, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
