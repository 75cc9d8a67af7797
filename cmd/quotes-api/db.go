package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/repo"
)

// openStore opens the configured backend and brings the schema up to date.
func (a *app) openStore(ctx context.Context) (*gorm.DB, error) {
	db, err := repo.Open(a.cfg.DB)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := repo.Ping(ctx, db); err != nil {
		_ = repo.Close(db)
		return nil, errors.Wrap(err, "ping database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = repo.Close(db)
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

func (a *app) closeStore(db *gorm.DB) {
	if err := repo.Close(db); err != nil {
		a.log.Error().Err(err).Msg("close database")
	}
}

// sweepIdempotency purges expired idempotency records once immediately and
// then on every tick until ctx is done.
func (a *app) sweepIdempotency(ctx context.Context, db *gorm.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	a.purgeIdempotency(ctx, db, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.purgeIdempotency(ctx, db, now.UTC())
		}
	}
}

func (a *app) purgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) int64 {
	n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Warn().Err(err).Msg("idempotency sweep failed")
		}
		return 0
	}
	if n > 0 {
		a.log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
	}
	return n
}
