package middleware

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
)

// RequireJSON rejects POST, PUT and PATCH requests whose Content-Type is not
// application/json with 415 unsupported_media_type. Parameters such as
// charset are allowed.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mt != "application/json" {
			envelope.FailKind(c, errs.UnsupportedMediaType, "")
			return
		}
		c.Next()
	}
}
