// Package middleware holds the gin middleware shared by the quotes API:
// request ids, request logging, recovery, metrics, rate limiting, security
// headers, idempotency keys, content-type enforcement and schema validation.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
//
// HSTS is sent only when EnableHSTS is set and the request arrived over
// HTTPS, directly or through a proxy reporting X-Forwarded-Proto: https.
// NoStore takes precedence over Revalidate.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // Cache-Control: no-store on every response
	Revalidate   bool          // Cache-Control: no-cache on GET/HEAD so ETags are rechecked
	EnablePolicy bool          // Permissions-Policy and X-Permitted-Cross-Domain-Policies
}

type header struct{ key, value string }

// SecurityHeaders sets hardening headers for a JSON API. The static set is
// computed once; cache and HSTS headers depend on the request.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := []header{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
	}
	if opt.EnablePolicy {
		static = append(static,
			header{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			header{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if opt.NoStore {
		static = append(static,
			header{"Cache-Control", "no-store"},
			header{"Pragma", "no-cache"},
			header{"Expires", "0"},
		)
	}

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv.key, kv.value)
		}

		if !opt.NoStore && opt.Revalidate && isRead(c.Request.Method) {
			h.Set("Cache-Control", "no-cache")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		exposeRequestID(h)

		c.Next()
	}
}

// exposeRequestID lets browser clients read X-Request-ID on same-origin
// responses too. CORS responses get it from the cors middleware.
func exposeRequestID(h http.Header) {
	if h.Get(requestIDHeader) == "" {
		return
	}
	const k = "Access-Control-Expose-Headers"
	cur := h.Get(k)
	switch {
	case cur == "":
		h.Set(k, requestIDHeader)
	case !strings.Contains(strings.ToLower(cur), strings.ToLower(requestIDHeader)):
		h.Set(k, cur+", "+requestIDHeader)
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// isHTTPS reports whether r used TLS directly or behind a proxy that set
// X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
