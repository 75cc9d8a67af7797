package middleware

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
	"github.com/tbourn/go-quotes-api/internal/validation"
)

// HeaderIdempotencyKey carries the client's idempotency key on POST /quotes.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplayed is set to "true" on responses that replay a stored
// result instead of creating a new quote.
const HeaderIdempotentReplayed = "Idempotent-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	MaxLen  int              // defaults to 200
	Pattern *regexp.Regexp   // defaults to ^[A-Za-z0-9._~\-:]+$
	Now     func() time.Time // defaults to time.Now; always passed to lookup in UTC
}

// IdempotencyLookup reports whether an unexpired record exists for key at now.
// TTL is the lookup's concern.
type IdempotencyLookup func(ctx context.Context, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header on POST requests.
// Other methods pass through untouched. A malformed key answers 400 invalid
// with one field violation. A valid key is stashed for the handler, and when
// lookup finds a live record the request is flagged as a replay that skips
// the rate limiter. Lookup failures are logged and otherwise ignored; the
// service transaction still decides replay versus conflict.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	field := "headers." + HeaderIdempotencyKey

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		var violation *errs.FieldError
		switch {
		case len(key) > maxLen:
			violation = &errs.FieldError{Field: field, Rule: validation.RuleMaxLength,
				Message: fmt.Sprintf("must be at most %d characters", maxLen)}
		case !pat.MatchString(key):
			violation = &errs.FieldError{Field: field, Rule: validation.RulePattern,
				Message: fmt.Sprintf("must match pattern %s", pat)}
		}
		if violation != nil {
			envelope.Fail(c, errs.WithFields(errs.Invalid, []errs.FieldError{*violation}))
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), key, now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
