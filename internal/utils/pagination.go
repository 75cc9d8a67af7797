// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of storage and transport concerns.
//
// This file holds the pagination calculator: a pure function that turns a
// total row count plus the requested limit/page into page metadata, or a
// bounds error when either value falls outside its permitted range.
package utils

import (
	"fmt"
	"strconv"
)

// Pagination defaults.
const (
	DefaultLimit = 10
	DefaultPage  = 1
	MinLimit     = 2
	MaxLimit     = 100
)

// Bounds is the accepted [MinLimit, MaxLimit] range for page sizes.
type Bounds struct {
	MinLimit int
	MaxLimit int
}

// DefaultBounds returns the stock [2, 100] range.
func DefaultBounds() Bounds { return Bounds{MinLimit: MinLimit, MaxLimit: MaxLimit} }

// normalized fills unset fields with the defaults.
func (b Bounds) normalized() Bounds {
	if b.MinLimit <= 0 {
		b.MinLimit = MinLimit
	}
	if b.MaxLimit <= 0 {
		b.MaxLimit = MaxLimit
	}
	return b
}

// PageResult is the pagination metadata returned alongside list data.
// NextPage and PrevPage are nil when there is no such page.
type PageResult struct {
	TotalRecords int64 `json:"totalRecords" example:"10"`
	TotalPages   int   `json:"totalPages"   example:"5"`
	CurrentPage  int   `json:"currentPage"  example:"4"`
	NextPage     *int  `json:"nextPage"     example:"5"`
	PrevPage     *int  `json:"prevPage"     example:"3"`
}

// BoundsError reports a limit or page outside its permitted range.
type BoundsError struct {
	Param string // "limit" or "page"
	Value int
	Min   int
	Max   int
}

func (e *BoundsError) Error() string {
	if e.Max < e.Min {
		return fmt.Sprintf("%s %d is out of range: no pages available", e.Param, e.Value)
	}
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Param, e.Min, e.Max, e.Value)
}

// ValidateLimit checks limit against b. It is split out so callers can reject
// a bad limit before paying for a count query.
func ValidateLimit(limit int, b Bounds) error {
	b = b.normalized()
	if limit < b.MinLimit || limit > b.MaxLimit {
		return &BoundsError{Param: "limit", Value: limit, Min: b.MinLimit, Max: b.MaxLimit}
	}
	return nil
}

// Paginate derives page metadata for total rows split into pages of limit.
//
// The first page of an empty collection is valid and yields TotalPages 0
// with no next/prev page; every other page must lie in [1, TotalPages].
func Paginate(total int64, limit, page int, b Bounds) (PageResult, error) {
	if err := ValidateLimit(limit, b); err != nil {
		return PageResult{}, err
	}
	if total < 0 {
		total = 0
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	if total == 0 && page == DefaultPage {
		return PageResult{CurrentPage: page}, nil
	}
	if page < 1 || page > totalPages {
		return PageResult{}, &BoundsError{Param: "page", Value: page, Min: 1, Max: totalPages}
	}

	res := PageResult{
		TotalRecords: total,
		TotalPages:   totalPages,
		CurrentPage:  page,
	}
	if page < totalPages {
		next := page + 1
		res.NextPage = &next
	}
	if page > 1 {
		prev := page - 1
		res.PrevPage = &prev
	}
	return res, nil
}

// Offset returns the row offset of page for pages of limit rows.
func Offset(limit, page int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

// AtoiDefault converts a string to an int using strconv.Atoi.
// An empty string yields def; anything unparsable is an error.
//
// Example:
//
//	n, _ := utils.AtoiDefault("42", 0)  // 42, nil
//	n, _ = utils.AtoiDefault("", 10)    // 10, nil
//	_, err := utils.AtoiDefault("x", 5) // err != nil
func AtoiDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
