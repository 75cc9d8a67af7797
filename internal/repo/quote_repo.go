// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Quote model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a quote is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. See IsUniqueViolation and
//     IsConnError for classification helpers.
//
// Functions:
//
//   - CreateQuote(ctx, db, author, text) -> *domain.Quote, error
//     Inserts a new row; the storage assigns the ID.
//
//   - CountQuotes(ctx, db) -> (int64, error)
//     Returns the total number of stored quotes.
//
//   - ListQuotesPage(ctx, db, offset, limit) -> []domain.Quote, error
//     Returns a window of quotes ordered by ID ascending.
//
//   - GetQuote(ctx, db, id) -> *domain.Quote, error
//     Fetches a single quote by ID, or ErrNotFound if missing.
//
//   - DeleteQuote(ctx, db, id) -> (bool, error)
//     Removes a quote; false when no row matched.
//
// Usage:
//
//	q, err := repo.GetQuote(ctx, db, 7)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // handle missing
//	} else if err != nil {
//	    // handle DB failure
//	}
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateQuote inserts a quote. author may be nil for an anonymous quote.
func CreateQuote(ctx context.Context, db *gorm.DB, author *string, text string) (*domain.Quote, error) {
	q := &domain.Quote{Author: author, Text: text}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// CountQuotes returns the number of stored quotes.
func CountQuotes(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Quote{}).Count(&n).Error
	return n, err
}

// ListQuotesPage returns up to limit quotes starting at offset, ordered by
// ID ascending so pages are stable across calls.
func ListQuotesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Quote, error) {
	var out []domain.Quote
	err := db.WithContext(ctx).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetQuote fetches a quote by ID.
func GetQuote(ctx context.Context, db *gorm.DB, id int64) (*domain.Quote, error) {
	var q domain.Quote
	if err := db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// DeleteQuote removes the quote with the given ID. It reports false when no
// row matched.
func DeleteQuote(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Quote{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
