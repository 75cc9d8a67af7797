// Package services – QuoteService
//
// This file implements QuoteService, the application-level component that
// owns the quote lifecycle. It normalizes input, applies pagination bounds,
// coordinates repository calls and classifies every failure into the shared
// error taxonomy.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include quote identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/domain"
	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/repo"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

const tracerName = "services/QuoteService"

// QuoteRepo defines the repository contract required by QuoteService.
type QuoteRepo interface {
	// CountQuotes returns the total number of quotes for pagination.
	CountQuotes(ctx context.Context, db *gorm.DB) (int64, error)

	// ListQuotesPage returns a window of quotes ordered by ID.
	ListQuotesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Quote, error)

	// CreateQuote inserts a quote and returns it with its assigned ID.
	CreateQuote(ctx context.Context, db *gorm.DB, author *string, text string) (*domain.Quote, error)

	// CreateQuoteIdempotent inserts a quote guarded by an idempotency key.
	CreateQuoteIdempotent(ctx context.Context, db *gorm.DB, in repo.IdempotentCreate) (*domain.Quote, bool, error)

	// GetQuote fetches a quote by ID.
	GetQuote(ctx context.Context, db *gorm.DB, id int64) (*domain.Quote, error)

	// DeleteQuote removes a quote, reporting whether a row matched.
	DeleteQuote(ctx context.Context, db *gorm.DB, id int64) (bool, error)

	// QuotesStats returns the row count and largest ID.
	QuotesStats(ctx context.Context, db *gorm.DB) (int64, int64, error)

	// Ping checks database reachability.
	Ping(ctx context.Context, db *gorm.DB) error
}

// QuoteService provides quote-level operations.
type QuoteService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the quote repository used by this service.
	Repo QuoteRepo

	// Bounds caps the page size accepted by ListPage.
	Bounds utils.Bounds
	// IdempotencyTTL is how long an Idempotency-Key stays replayable.
	IdempotencyTTL time.Duration
	// LogStacks attaches stack traces to logged storage faults.
	LogStacks bool

	now func() time.Time
}

// NewQuoteService constructs a QuoteService with default bounds and a 24h
// idempotency window.
func NewQuoteService(db *gorm.DB, r QuoteRepo) *QuoteService {
	return &QuoteService{
		DB:             db,
		Repo:           r,
		Bounds:         utils.DefaultBounds(),
		IdempotencyTTL: 24 * time.Hour,
		LogStacks:      true,
		now:            time.Now,
	}
}

// CreateResult is the outcome of a create call.
type CreateResult struct {
	Quote *domain.Quote
	// Replayed is true when an idempotent retry returned a stored result
	// instead of inserting.
	Replayed bool
}

// ListPage returns one page of quotes and its pagination metadata.
//
// The limit is checked before any query runs. The first page of an empty
// table is valid and returns no items; other out-of-range pages are a
// BadRequest.
func (s *QuoteService) ListPage(ctx context.Context, limit, page int) ([]domain.Quote, utils.PageResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if err := utils.ValidateLimit(limit, s.Bounds); err != nil {
		return nil, utils.PageResult{}, s.classify(ctx, "ListPage", err)
	}

	total, err := s.Repo.CountQuotes(ctx, s.DB)
	if err != nil {
		return nil, utils.PageResult{}, s.classify(ctx, "CountQuotes", err)
	}

	meta, err := utils.Paginate(total, limit, page, s.Bounds)
	if err != nil {
		return nil, utils.PageResult{}, s.classify(ctx, "ListPage", err)
	}
	if total == 0 {
		return []domain.Quote{}, meta, nil
	}

	items, err := s.Repo.ListQuotesPage(ctx, s.DB, utils.Offset(limit, page), limit)
	if err != nil {
		return nil, utils.PageResult{}, s.classify(ctx, "ListQuotesPage", err)
	}
	if items == nil {
		items = []domain.Quote{}
	}
	return items, meta, nil
}

// Create normalizes and stores a new quote. A nil or blank author is stored
// as NULL.
func (s *QuoteService) Create(ctx context.Context, author *string, text string) (*domain.Quote, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Create")
	defer span.End()

	author, text, err := normalizeInput(author, text)
	if err != nil {
		return nil, err
	}

	q, err := s.Repo.CreateQuote(ctx, s.DB, author, text)
	if err != nil {
		return nil, s.classify(ctx, "CreateQuote", err)
	}
	span.SetAttributes(attribute.Int64("quote.id", q.ID))
	return q, nil
}

// CreateIdempotent stores a quote guarded by key. Retrying with the same key
// and an equivalent payload returns the original ID with Replayed set;
// reusing the key for a different payload fails with ErrKeyReused.
func (s *QuoteService) CreateIdempotent(ctx context.Context, key string, author *string, text string) (CreateResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "CreateIdempotent")
	defer span.End()

	author, text, err := normalizeInput(author, text)
	if err != nil {
		return CreateResult{}, err
	}

	in := repo.IdempotentCreate{
		Key:         key,
		Fingerprint: Fingerprint(author, text),
		Author:      author,
		Text:        text,
		Status:      http.StatusCreated,
		Now:         s.clock().UTC(),
		TTL:         s.IdempotencyTTL,
	}

	q, replayed, err := s.Repo.CreateQuoteIdempotent(ctx, s.DB, in)
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request committed the same key first; the retry
		// observes its record.
		q, replayed, err = s.Repo.CreateQuoteIdempotent(ctx, s.DB, in)
	}
	switch {
	case errors.Is(err, repo.ErrFingerprintMismatch):
		return CreateResult{}, ErrKeyReused
	case err != nil:
		return CreateResult{}, s.classify(ctx, "CreateQuoteIdempotent", err)
	}

	span.SetAttributes(
		attribute.Int64("quote.id", q.ID),
		attribute.Bool("idempotent.replayed", replayed),
	)
	return CreateResult{Quote: q, Replayed: replayed}, nil
}

// Get returns the quote with the given ID.
func (s *QuoteService) Get(ctx context.Context, id int64) (*domain.Quote, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("quote.id", id)),
	)
	defer span.End()

	q, err := s.Repo.GetQuote(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, s.classify(ctx, "GetQuote", err)
	}
	return q, nil
}

// Delete removes the quote with the given ID.
func (s *QuoteService) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("quote.id", id)),
	)
	defer span.End()

	ok, err := s.Repo.DeleteQuote(ctx, s.DB, id)
	if err != nil {
		return s.classify(ctx, "DeleteQuote", err)
	}
	if !ok {
		return ErrQuoteNotFound
	}
	return nil
}

// Stats returns the quote count and largest ID, used for list ETags.
func (s *QuoteService) Stats(ctx context.Context) (count, maxID int64, err error) {
	count, maxID, err = s.Repo.QuotesStats(ctx, s.DB)
	if err != nil {
		return 0, 0, s.classify(ctx, "QuotesStats", err)
	}
	return count, maxID, nil
}

// Ready reports whether the database answers. Failures are NotReady.
func (s *QuoteService) Ready(ctx context.Context) error {
	if err := s.Repo.Ping(ctx, s.DB); err != nil {
		return errs.Wrap(errs.NotReady, err, "")
	}
	return nil
}

func (s *QuoteService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Fingerprint hashes a normalized payload for idempotency comparison.
func Fingerprint(author *string, text string) string {
	h := sha256.New()
	if author != nil {
		h.Write([]byte("a:"))
		h.Write([]byte(*author))
	}
	h.Write([]byte{0})
	h.Write([]byte("t:"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeInput trims and NFC-normalizes the payload. A blank author
// becomes nil; blank text is rejected.
func normalizeInput(author *string, text string) (*string, string, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil, "", ErrEmptyText
	}
	if author != nil {
		a := norm.NFC.String(strings.TrimSpace(*author))
		if a == "" {
			author = nil
		} else {
			author = &a
		}
	}
	return author, text, nil
}
