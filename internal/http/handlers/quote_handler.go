// Quote HTTP handlers.
//
// This file exposes REST endpoints for the quotes resource:
//   - GET    /quotes        (list, paginated, ETag support)
//   - POST   /quotes        (create, optional Idempotency-Key)
//   - GET    /quotes/{id}   (fetch one)
//   - DELETE /quotes/{id}   (remove one)
//
// plus the /health and /readyz endpoints.
//
// Handlers are transport-thin: they parse input, call the quote service, and
// translate results into envelopes (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/domain"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
	"github.com/tbourn/go-quotes-api/internal/http/middleware"
	"github.com/tbourn/go-quotes-api/internal/services"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

//
// Service contract (context-aware)
//

// QuoteService defines the quote operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts. Returned errors are
// expected to be classified with internal/errs.
type QuoteService interface {
	// ListPage returns one page of quotes ordered by id and its pagination.
	ListPage(ctx context.Context, limit, page int) ([]domain.Quote, utils.PageResult, error)
	// Create stores a new quote.
	Create(ctx context.Context, author *string, text string) (*domain.Quote, error)
	// CreateIdempotent stores a new quote or replays the result stored for key.
	CreateIdempotent(ctx context.Context, key string, author *string, text string) (services.CreateResult, error)
	// Get returns the quote with the given id.
	Get(ctx context.Context, id int64) (*domain.Quote, error)
	// Delete removes the quote with the given id.
	Delete(ctx context.Context, id int64) error
	// Stats returns the row count and the highest id.
	Stats(ctx context.Context) (count, maxID int64, err error)
	// Ready reports whether the backing store is reachable.
	Ready(ctx context.Context) error
}

//
// Handler wiring
//

// Defaults applied when list query parameters are absent.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// Handlers groups the quote, health and readiness endpoints.
type Handlers struct {
	svc          QuoteService
	defaultLimit int
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc QuoteService) *Handlers {
	return &Handlers{svc: svc, defaultLimit: DefaultLimit}
}

// WithDefaultLimit overrides the page size used when ?limit is absent.
// Non-positive values are ignored.
func (h *Handlers) WithDefaultLimit(n int) *Handlers {
	if n > 0 {
		h.defaultLimit = n
	}
	return h
}

//
// DTOs
//

// CreateQuoteRequest is the JSON payload for adding a quote.
type CreateQuoteRequest struct {
	// Author is optional; blank or missing is stored as null.
	Author *string `json:"author" example:"Dom Mazzetti"`
	// Text is the quote itself (1–512 chars).
	Text string `json:"text" example:"Challenging yourself...is a good way to fail."`
}

//
// Helpers
//

// queryInt parses a single-valued integer query parameter, returning def when
// it is absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	vals, present := c.GetQueryArray(name)
	if !present {
		return def, nil
	}
	if len(vals) != 1 {
		return 0, errBadQuery(name)
	}
	n, err := utils.AtoiDefault(vals[0], def)
	if err != nil {
		return 0, errBadQuery(name)
	}
	return n, nil
}

// pathID parses :id as a positive int64.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

// listETag builds the weak validator for one list page. It changes whenever a
// quote is added or removed.
func listETag(count, maxID int64, limit, page int) string {
	return fmt.Sprintf(`W/"quotes:%d:%d:%d:%d"`, count, maxID, limit, page)
}

//
// Handlers
//

// ListQuotes godoc
// @ID          listQuotes
// @Summary     List quotes (paginated)
// @Description Returns one page of quotes ordered by id. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Quotes
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"quotes:10:10:10:1\")
// @Param       limit          query   int     false "Items per page"               minimum(2) maximum(100) default(10)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
//
// @Success     200  {object} handlers.QuoteListResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Header      200  {string} Cache-Control  "Caching directives"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} envelope.ErrorResponse "Bad request"
// @Failure     503  {object} envelope.ErrorResponse "Backend error"
// @Router      /quotes [get]
func (h *Handlers) ListQuotes(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := queryInt(c, "limit", h.defaultLimit)
	if err != nil {
		fail(c, err)
		return
	}
	page, err := queryInt(c, "page", DefaultPage)
	if err != nil {
		fail(c, err)
		return
	}

	// Bounds are checked by ListPage, so a rejected request never gets a
	// validator and can never be answered 304.
	items, pr, err := h.svc.ListPage(ctx, limit, page)
	if err != nil {
		fail(c, err)
		return
	}

	// ETag (best effort).
	if count, maxID, err := h.svc.Stats(ctx); err == nil {
		etag := listETag(count, maxID, limit, page)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	envelope.OK(c, items, &pr)
}

// CreateQuote godoc
// @ID          createQuote
// @Summary     Add a quote
// @Description Stores a quote and returns its id. With Idempotency-Key, a retry carrying the same payload replays the original id.
// @Tags        Quotes
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string                       false "Deduplicates retries (<=200 chars, [A-Za-z0-9._~:-])"  example(3f6c1c2e-quote-1)
// @Param       body             body    handlers.CreateQuoteRequest  true  "Quote payload"
//
// @Success     201  {object} handlers.CreateQuoteResponse
// @Header      201  {string} Idempotent-Replayed "true when the response replays a stored result"
// @Failure     400  {object} envelope.ErrorResponse "Invalid payload"
// @Failure     409  {object} envelope.ErrorResponse "Conflict or reused idempotency key"
// @Failure     415  {object} envelope.ErrorResponse "Unsupported media type"
// @Failure     429  {object} envelope.ErrorResponse "Rate limited"
// @Failure     500  {object} envelope.ErrorResponse "Internal error"
// @Router      /quotes [post]
func (h *Handlers) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errBadBody)
		return
	}
	ctx := c.Request.Context()

	var (
		q   *domain.Quote
		err error
	)
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		var res services.CreateResult
		res, err = h.svc.CreateIdempotent(ctx, key, req.Author, req.Text)
		if err == nil && res.Replayed {
			c.Header(middleware.HeaderIdempotentReplayed, "true")
		}
		q = res.Quote
	} else {
		q, err = h.svc.Create(ctx, req.Author, req.Text)
	}
	if err != nil {
		fail(c, err)
		return
	}

	envelope.Created(c, CreatedQuote{ID: q.ID}, fmt.Sprintf("Quote added with ID %d", q.ID))
}

// GetQuote godoc
// @ID          getQuote
// @Summary     Get a quote
// @Tags        Quotes
// @Produce     json
//
// @Param       id  path  int  true  "Quote ID"  minimum(1) example(7)
//
// @Success     200  {object} handlers.QuoteResponse
// @Failure     400  {object} envelope.ErrorResponse "Invalid id"
// @Failure     404  {object} envelope.ErrorResponse "Quote not found"
// @Router      /quotes/{id} [get]
func (h *Handlers) GetQuote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	q, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, q, nil)
}

// DeleteQuote godoc
// @ID          deleteQuote
// @Summary     Delete a quote
// @Description Removes a quote. Deleting an absent id is a 404, so repeated deletes are stable.
// @Tags        Quotes
// @Produce     json
//
// @Param       id  path  int  true  "Quote ID"  minimum(1) example(7)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} envelope.ErrorResponse "Invalid id"
// @Failure     404  {object} envelope.ErrorResponse "Quote not found"
// @Router      /quotes/{id} [delete]
func (h *Handlers) DeleteQuote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	envelope.NoContent(c)
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Probes
// @Produce     json
// @Success     200  {object} handlers.StatusResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	envelope.OK(c, StatusResponse{Status: "ok"}, nil)
}

// Ready godoc
// @ID          ready
// @Summary     Readiness probe
// @Description Pings the database pool.
// @Tags        Probes
// @Produce     json
// @Success     200  {object} handlers.StatusResponse
// @Failure     503  {object} envelope.ErrorResponse "Not ready"
// @Router      /readyz [get]
func (h *Handlers) Ready(c *gin.Context) {
	if err := h.svc.Ready(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	envelope.OK(c, StatusResponse{Status: "ready"}, nil)
}
