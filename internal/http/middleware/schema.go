package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
	"github.com/tbourn/go-quotes-api/internal/validation"
)

// ValidateSchema checks path parameters, query parameters and (when the
// schema declares body rules) the JSON body against s before the handler
// runs. Violations abort with 400 required/invalid and the field list; an
// undecodable body aborts with 400 parse_error. The body is restored so the
// handler can bind it again.
func ValidateSchema(s validation.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := validation.Input{
			Params: make(map[string]string, len(c.Params)),
			Query:  c.Request.URL.Query(),
		}
		for _, p := range c.Params {
			in.Params[p.Key] = p.Value
		}

		if len(s.Body) > 0 {
			body, err := readBody(c)
			if err != nil {
				envelope.Fail(c, err)
				return
			}
			in.Body = body
		}

		if err := validation.Error(s.Validate(in)); err != nil {
			envelope.Fail(c, err)
			return
		}
		c.Next()
	}
}

// readBody decodes the request body as a JSON object and puts the raw bytes
// back on the request.
func readBody(c *gin.Context) (map[string]any, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.Wrap(errs.BadRequest, err, "request body too large")
		}
		return nil, errs.Wrap(errs.ParseError, err, "")
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errs.Wrap(errs.ParseError, err, "")
	}
	return body, nil
}
