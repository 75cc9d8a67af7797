// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response shapes used across all endpoints and the
// thin helpers handlers use to write them. Every body is the envelope from
// internal/http/envelope, so success and failure share one predictable shape:
//
//   - success: {"success": true, "data": ..., "pagination"?: ..., "message"?: ...}
//   - failure: {"success": false, "code": ..., "message": ..., "errors"?: [...]}
//
// Conventions:
//   - Handlers never build error bodies themselves; they return classified
//     errors (internal/errs) through fail(), which picks status and code.
//   - 5xx failures are logged with the request-scoped logger by the envelope.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "code": "not_found",
//	  "message": "quote not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "success": true, "data": { "id": 11 }, "message": "Quote added with ID 11" }
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/domain"
	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

// QuoteResponse is the envelope returned by GET /quotes/{id}.
type QuoteResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    domain.Quote `json:"data"`
}

// QuoteListResponse is the envelope returned by GET /quotes.
type QuoteListResponse struct {
	Success    bool             `json:"success" example:"true"`
	Data       []domain.Quote   `json:"data"`
	Pagination utils.PageResult `json:"pagination"`
}

// CreatedQuote carries the identifier of a newly stored quote.
type CreatedQuote struct {
	ID int64 `json:"id" example:"11"`
}

// CreateQuoteResponse is the envelope returned by POST /quotes.
type CreateQuoteResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    CreatedQuote `json:"data"`
	Message string       `json:"message" example:"Quote added with ID 11"`
}

// StatusResponse is returned by the health and readiness endpoints.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// fail aborts the request with the failure envelope for err.
func fail(c *gin.Context, err error) { envelope.Fail(c, err) }

// FailKind writes the failure envelope for kind k with its default message.
func FailKind(c *gin.Context, k errs.Kind) { envelope.FailKind(c, k, "") }
