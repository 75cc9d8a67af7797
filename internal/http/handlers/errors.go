// Package handlers defines HTTP-layer errors raised while parsing requests.
//
// Errors coming from services are already classified (internal/errs) and are
// passed to fail() unchanged. The values below cover the checks that happen
// in the transport layer itself: path ids and list query parameters.
package handlers

import (
	"fmt"

	"github.com/tbourn/go-quotes-api/internal/errs"
)

var (
	// errInvalidID is returned when :id is not an integer in [1, MaxInt64].
	errInvalidID = errs.New(errs.BadRequest, "id must be a positive integer")

	// errBadBody is returned when the JSON body cannot be bound.
	errBadBody = errs.New(errs.ParseError, "")
)

// errBadQuery reports a list query parameter that is repeated or not an
// integer.
func errBadQuery(name string) error {
	return errs.New(errs.BadRequest, fmt.Sprintf("%s must be a single integer value", name))
}
