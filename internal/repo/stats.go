// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/domain"
)

// QuotesStats returns the number of stored quotes and the largest ID among
// them. Because IDs only grow and quotes are never updated in place, the
// pair changes whenever the collection does. An empty table yields (0, 0).
func QuotesStats(ctx context.Context, db *gorm.DB) (count, maxID int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Quote{})

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct{ ID int64 }
	if err = db.WithContext(ctx).Model(&domain.Quote{}).
		Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
