package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/domain"
)

type seedQuote struct {
	Author string
	Text   string
}

// canonicalQuotes is the initial data set. An empty author is stored as NULL.
var canonicalQuotes = []seedQuote{
	{"Homer Simpson", "Trying is the first step toward failure."},
	{"Robert Penn Warren", "You have to make the good out of the bad because that is all you have got to make it out of."},
	{"", "The best things in life are actually really expensive."},
	{"Latrell Sprewell", "Success is just failure that hasn't happened yet."},
	{"Dwight Schrute", "Not everything is a lesson. Sometimes you just fail."},
	{"W.C. Fields", "If at first you don't succeed, try, try again. Then quit. No use being a damn fool about it."},
	{"Dom Mazzetti", "Challenging yourself...is a good way to fail."},
	{"John Benfield", "Eagles may soar, but weasels don't get sucked into jet engines."},
	{"Dorothy Parker", "If you want to know what God thinks of money, just look at the people he gave it to."},
	{"Harry Hill", "It's only when you look at an ant through a magnifying glass on a sunny day that you realize how often they burst into flames."},
}

// SeedQuotes replaces the contents of the quotes table with the canonical
// data set in a single transaction and returns the number of rows inserted.
func SeedQuotes(ctx context.Context, db *gorm.DB) (int, error) {
	rows := make([]domain.Quote, 0, len(canonicalQuotes))
	for _, s := range canonicalQuotes {
		q := domain.Quote{Text: s.Text}
		if s.Author != "" {
			a := s.Author
			q.Author = &a
		}
		rows = append(rows, q)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Quote{}).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// SeedIfEmpty seeds the canonical quotes only when the table has no rows.
// It reports whether seeding happened.
func SeedIfEmpty(ctx context.Context, db *gorm.DB) (bool, error) {
	n, err := CountQuotes(ctx, db)
	if err != nil || n > 0 {
		return false, err
	}
	if _, err := SeedQuotes(ctx, db); err != nil {
		return false, err
	}
	return true, nil
}
