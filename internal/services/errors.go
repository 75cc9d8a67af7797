// Package services defines the business logic for quotes. This file maps
// storage faults onto the shared error taxonomy so that handlers only ever
// deal with classified errors.
//
// Raw driver text never becomes a public message: the cause is wrapped for
// server-side logging and the caller receives the kind's default message.
package services

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/repo"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

// Service-level errors returned for predictable cases.
var (
	// ErrQuoteNotFound indicates that no quote has the requested ID.
	ErrQuoteNotFound = errs.New(errs.NotFound, "quote not found")

	// ErrEmptyText is returned when the quote text is blank after normalization.
	ErrEmptyText = errs.WithFields(errs.Invalid, []errs.FieldError{
		{Field: "body.text", Rule: "minLength", Message: "must be at least 1 characters long"},
	})

	// ErrKeyReused is returned when an Idempotency-Key is replayed with a
	// different payload.
	ErrKeyReused = errs.New(errs.Duplicate, "Idempotency-Key was already used with a different request body")
)

// faultKind picks the taxonomy kind for an unclassified storage error.
func faultKind(err error) errs.Kind {
	switch {
	case repo.IsUniqueViolation(err), errors.Is(err, repo.ErrDuplicate):
		return errs.Conflict
	case repo.IsCheckViolation(err):
		return errs.Invalid
	case repo.IsConnError(err):
		return errs.BackendNotConnected
	case errors.Is(err, context.DeadlineExceeded):
		return errs.BackendError
	default:
		return errs.InternalError
	}
}

// classify converts err into an *errs.Error. Already classified errors and
// pagination bounds errors pass through without logging; everything else is
// logged with its stack trace (when enabled) under op.
func (s *QuoteService) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	var typed *errs.Error
	if errors.As(err, &typed) {
		return typed
	}
	var bounds *utils.BoundsError
	if errors.As(err, &bounds) {
		return errs.Wrap(errs.BadRequest, err, bounds.Error())
	}

	kind := faultKind(err)
	ev := zerolog.Ctx(ctx).Error()
	if s.LogStacks {
		ev = ev.Stack()
	}
	ev.Err(pkgerrors.WithStack(err)).
		Str("op", op).
		Str("kind", kind.Code()).
		Msg("storage fault")

	return errs.Wrap(kind, err, "")
}
