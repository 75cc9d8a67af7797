// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST /quotes.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/domain"
)

var (
	// ErrDuplicate indicates that an idempotency record already exists for
	// the given key.
	ErrDuplicate = errors.New("duplicate")

	// ErrFingerprintMismatch indicates that a live key was reused with a
	// different request payload.
	ErrFingerprintMismatch = errors.New("idempotency key reused with a different payload")
)

// GetIdempotency returns a non-expired record for key or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("idem_key = ? AND expires_at > ?", key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, key, fingerprint string, quoteID int64, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	rec := &domain.Idempotency{
		ID:          uuid.NewString(),
		Key:         key,
		Fingerprint: fingerprint,
		QuoteID:     quoteID,
		Status:      status,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records whose TTL has elapsed and returns
// the number of rows removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// IdempotentCreate describes a keyed quote insertion.
type IdempotentCreate struct {
	Key         string
	Fingerprint string
	Author      *string
	Text        string
	Status      int // status recorded for replays
	Now         time.Time
	TTL         time.Duration
}

// CreateQuoteIdempotent inserts a quote and its idempotency record in one
// transaction. When a live record for the key already exists with the same
// fingerprint, no row is inserted and replayed is true; the returned quote
// then carries only the recorded ID. A different fingerprint yields
// ErrFingerprintMismatch. A concurrent insert of the same key surfaces as
// ErrDuplicate.
func CreateQuoteIdempotent(ctx context.Context, db *gorm.DB, in IdempotentCreate) (q *domain.Quote, replayed bool, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// An expired record must not block reuse of its key.
		if err := tx.Where("idem_key = ? AND expires_at <= ?", in.Key, in.Now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}

		rec, err := GetIdempotency(ctx, tx, in.Key, in.Now)
		switch {
		case err == nil:
			if rec.Fingerprint != in.Fingerprint {
				return ErrFingerprintMismatch
			}
			q, replayed = &domain.Quote{ID: rec.QuoteID}, true
			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		created, err := CreateQuote(ctx, tx, in.Author, in.Text)
		if err != nil {
			return err
		}
		if _, err := CreateIdempotency(ctx, tx, in.Key, in.Fingerprint, created.ID, in.Status, in.Now, in.TTL); err != nil {
			return err
		}
		q = created
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return q, replayed, nil
}
