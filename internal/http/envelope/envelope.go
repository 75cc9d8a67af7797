// Package envelope defines the single JSON response shape used by every
// endpoint, and helpers that write it from Gin handlers and middleware.
//
// Success:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": [...], "pagination": {...} }
//
// Failure:
//
//	HTTP/1.1 404 Not Found
//	{ "success": false, "code": "not_found", "message": "quote not found" }
//
// A failure never carries data. Server-side failures (5xx) are logged with
// the request-scoped zerolog logger before the response is written.
package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/utils"
)

// Response is the uniform API envelope.
type Response struct {
	Success    bool              `json:"success"              example:"true"`
	Data       any               `json:"data,omitempty"`
	Pagination *utils.PageResult `json:"pagination,omitempty"`
	Message    string            `json:"message,omitempty"    example:"Quote added with ID 11"`
	Code       string            `json:"code,omitempty"       example:"not_found"`
	Errors     []errs.FieldError `json:"errors,omitempty"`
}

// ErrorResponse documents the failure shape for OpenAPI.
type ErrorResponse struct {
	Success bool              `json:"success" example:"false"`
	Code    string            `json:"code"    example:"not_found"`
	Message string            `json:"message" example:"quote not found"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
}

// OK writes a 200 envelope with data and optional pagination.
func OK(c *gin.Context, data any, page *utils.PageResult) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: page})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data any, msg string) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: msg})
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail classifies err, aborts the request and writes the failure envelope.
// Unclassified errors become InternalError with its default message.
func Fail(c *gin.Context, err error) {
	e := errs.As(err)
	status := e.Kind.Status()

	if status >= http.StatusInternalServerError {
		ev := zerolog.Ctx(c.Request.Context()).Error().
			Int("status", status).
			Str("code", e.Kind.Code())
		if e.Err != nil {
			ev = ev.AnErr("cause", e.Err)
		}
		ev.Msg("api error")
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Code:    e.Kind.Code(),
		Message: e.PublicMessage(),
		Errors:  e.Fields,
	})
}

// FailKind is shorthand for Fail(c, errs.New(k, msg)).
func FailKind(c *gin.Context, k errs.Kind, msg string) {
	Fail(c, errs.New(k, msg))
}
