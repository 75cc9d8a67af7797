package domain

import "time"

// Idempotency records the outcome of a POST /quotes request made with an
// Idempotency-Key header. A retry with the same key and the same payload
// fingerprint replays QuoteID instead of inserting a second row; the same
// key with a different payload is rejected.
type Idempotency struct {
	ID          string    `gorm:"size:36;primaryKey"`
	Key         string    `gorm:"column:idem_key;size:200;not null;uniqueIndex:ux_idempotency_key"`
	Fingerprint string    `gorm:"size:64;not null"`
	QuoteID     int64     `gorm:"not null"`
	Status      int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
