// Package domain defines the persistence models of the quotes API. These
// types are mapped with GORM and shared by the repository, service and HTTP
// layers.
package domain

// Quote is a single attributed quotation.
//
// Fields:
//   - ID: storage-assigned, monotonically increasing primary key. Immutable.
//   - Author: optional attribution, at most 128 characters. Stored as NULL
//     when absent and rendered as JSON null.
//   - Text: the quotation itself. Never empty for a persisted row.
//
// Quotes are hard-deleted; there is no soft-delete column and no update path.
type Quote struct {
	ID     int64   `json:"id"     gorm:"primaryKey;autoIncrement" example:"7"`
	Author *string `json:"author" gorm:"size:128"                 example:"Dom Mazzetti"`
	Text   string  `json:"text"   gorm:"type:text;not null;check:chk_quotes_text_not_empty,length(text) > 0" example:"Challenging yourself...is a good way to fail."`
}

// TableName returns the database table name for Quote.
func (Quote) TableName() string { return "quotes" }
